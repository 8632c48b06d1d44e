package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/t-race/typerace/internal/domain"
)

func init() {
	rootCmd.AddCommand(badgesCmd)
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List every badge in the catalog",
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tRARITY\tUNLOCK")
	for _, b := range d.Catalog.ListBadges() {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
			b.BadgeID,
			badgeIcon(b), b.Name,
			b.Category,
			rarityColor(b.Rarity).Sprint(b.Rarity),
			describeCriterion(b.Criterion),
		)
	}
	return w.Flush()
}

// describeCriterion renders a criterion as a short rule.
func describeCriterion(c domain.Criterion) string {
	flat := domain.SpecOf(c)
	switch c.(type) {
	case domain.TimePlayedCriterion:
		return fmt.Sprintf("time_played %s %g min", flat.Condition, flat.Threshold)
	case domain.StreakCriterion:
		return fmt.Sprintf("%g sessions in a row at %g%%+ accuracy", flat.Threshold, domain.StreakAccuracyBar)
	}
	return fmt.Sprintf("%s %s %g", flat.Type, flat.Condition, flat.Threshold)
}
