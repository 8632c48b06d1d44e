// Package main is the single-binary entrypoint for typerace.
package main

import "github.com/t-race/typerace/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
