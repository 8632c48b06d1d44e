package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t-race/typerace/internal/domain"
)

func init() {
	recordCmd.Flags().Float64Var(&recordWPM, "wpm", 0, "Words per minute")
	recordCmd.Flags().Float64Var(&recordAccuracy, "accuracy", 0, "Accuracy percentage (0-100)")
	recordCmd.Flags().Float64Var(&recordTime, "time", 0, "Seconds played")
	_ = recordCmd.MarkFlagRequired("wpm")
	_ = recordCmd.MarkFlagRequired("accuracy")
	rootCmd.AddCommand(recordCmd)
}

var (
	recordWPM      float64
	recordAccuracy float64
	recordTime     float64
)

var recordCmd = &cobra.Command{
	Use:   "record USER",
	Short: "Record a finished race and award badges",
	Long: `Record a finished race for USER, creating the player profile if
needed, then print any badges unlocked and the new skill level.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	userID := args[0]
	if _, err := d.Profiles.Get(ctx, userID); errors.Is(err, domain.ErrUserNotFound) {
		if _, _, err := d.Profiles.Upsert(ctx, domain.User{UserID: userID, DisplayName: userID}); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	res, err := d.Sessions.Record(ctx, userID, domain.PerformanceSample{
		WPM:        recordWPM,
		Accuracy:   recordAccuracy,
		TimePlayed: recordTime,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recorded %.0f WPM at %.1f%% accuracy\n", recordWPM, recordAccuracy)
	for _, id := range res.NewBadges {
		b, ok := d.Catalog.Lookup(id)
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  Unlocked %s %s\n", badgeIcon(b), rarityColor(b.Rarity).Sprint(b.Name))
	}
	if res.LevelUp {
		fmt.Fprintf(out, "  Level up: %s\n", res.SkillLevel)
	}
	if res.EvaluationError != "" {
		fmt.Fprintf(out, "  Achievements not evaluated: %s\n", res.EvaluationError)
	}
	return nil
}
