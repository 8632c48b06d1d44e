package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(progressCmd)
}

var progressCmd = &cobra.Command{
	Use:   "progress USER",
	Short: "Show a player's progress toward every badge",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	progress, err := d.Progress.GetProgress(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	unlocked := 0
	for _, b := range d.Catalog.ListBadges() {
		p := progress[b.BadgeID]
		detail := ""
		switch {
		case p.Unlocked:
			unlocked++
			detail = "unlocked " + p.UnlockedAt.Format("2006-01-02")
			if !p.IsViewed {
				detail += " (new)"
			}
		case p.CurrentValue != nil && p.TargetValue != nil:
			detail = fmt.Sprintf("%g / %g", *p.CurrentValue, *p.TargetValue)
		}
		fmt.Fprintf(w, "%s %s\t%s %3.0f%%\t%s\n",
			badgeIcon(b), rarityColor(b.Rarity).Sprint(b.Name), renderBar(p.Progress), p.Progress, detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d badges unlocked\n", unlocked, d.Catalog.Len())
	return nil
}

// ─── Progress Bar ───────────────────────────────────────────────────────────
// [=============>................]

const barWidth = 30 // Characters for the progress bar

func renderBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	var bar string
	if filled == barWidth {
		bar = strings.Repeat("=", filled)
	} else if filled > 0 {
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	} else {
		bar = strings.Repeat(".", barWidth)
	}
	return "[" + bar + "]"
}
