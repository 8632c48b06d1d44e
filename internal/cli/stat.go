package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statCmd)
}

var statCmd = &cobra.Command{
	Use:   "stat USER",
	Short: "Show a player's streak, skill level and XP",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	st, err := d.Stats.GetUserStat(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	skill := st.SkillLevel
	if skill == "" {
		skill = "-"
	}
	fmt.Fprintf(out, "Player:          %s\n", st.UserID)
	fmt.Fprintf(out, "Skill:           %s\n", skill)
	fmt.Fprintf(out, "XP:              %d\n", st.XPPoints)
	fmt.Fprintf(out, "Races:           %d\n", st.RacesCompleted)
	fmt.Fprintf(out, "Streak:          %d (longest %d)\n", st.CurrentStreak, st.LongestStreak)
	if !st.LastTestDate.IsZero() {
		fmt.Fprintf(out, "Last race:       %.0f WPM on %s\n", st.LastTestWPM, st.LastTestDate.Format("2006-01-02"))
	}
	for _, b := range st.Badges {
		fmt.Fprintf(out, "  %s  %s\n", b.Name, b.DateEarned.Format("2006-01-02"))
	}
	return nil
}
