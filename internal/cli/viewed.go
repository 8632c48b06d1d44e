package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(viewedCmd)
}

var viewedCmd = &cobra.Command{
	Use:   "viewed USER BADGE...",
	Short: "Mark unlocked badges as viewed",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runViewed,
}

func runViewed(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	n, err := d.Achievements.MarkViewed(cmd.Context(), args[0], args[1:])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d badge(s) marked as viewed\n", n)
	return nil
}
