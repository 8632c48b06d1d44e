package cli

import (
	"github.com/fatih/color"

	"github.com/t-race/typerace/internal/daemon"
	"github.com/t-race/typerace/internal/domain"
)

// openDaemon loads config and wires services without serving. Logging
// stays at warn so command output is not interleaved with info lines.
func openDaemon() (*daemon.Daemon, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		cfg.Logging.Level = "warn"
	}
	return daemon.NewWithConfig(cfg)
}

var (
	commonColor    = color.New(color.FgWhite)
	rareColor      = color.New(color.FgCyan)
	epicColor      = color.New(color.FgMagenta)
	legendaryColor = color.New(color.FgYellow, color.Bold)
)

// rarityColor picks the display color for a badge tier.
func rarityColor(r domain.Rarity) *color.Color {
	switch r {
	case domain.RarityRare:
		return rareColor
	case domain.RarityEpic:
		return epicColor
	case domain.RarityLegendary:
		return legendaryColor
	default:
		return commonColor
	}
}

// badgeIcon returns the glyph to print, falling back to a trophy.
func badgeIcon(b domain.BadgeDefinition) string {
	if b.IconKind == domain.IconGlyph && b.Icon != "" {
		return b.Icon
	}
	return "🏆"
}
