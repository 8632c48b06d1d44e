package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", 10, "Rows per page (max 100)")
	leaderboardCmd.Flags().IntVar(&leaderboardOffset, "offset", 0, "Rows to skip")
	rootCmd.AddCommand(leaderboardCmd)
}

var (
	leaderboardLimit  int
	leaderboardOffset int
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"top"},
	Short:   "Show players ranked by highest score",
	RunE:    runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	page, err := d.Profiles.Leaderboard(cmd.Context(), leaderboardLimit, leaderboardOffset)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(page.Leaderboard) == 0 {
		fmt.Fprintln(out, "No players yet. Run 'typerace record <user> --wpm N --accuracy N' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPLAYER\tBEST\tGAMES\tJOINED")
	for _, e := range page.Leaderboard {
		name := e.DisplayName
		if name == "" {
			name = e.UserID
		}
		fmt.Fprintf(w, "%d\t%s\t%.0f\t%d\t%s\n",
			e.Rank, name, e.HighestScore, e.TotalGamesPlayed, e.JoinedAt.Format("2006-01-02"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if page.Pagination.HasMore {
		fmt.Fprintf(out, "\n%d of %d shown; next page: --offset %d\n",
			len(page.Leaderboard), page.Pagination.Total, page.Pagination.Offset+page.Pagination.Limit)
	}
	return nil
}
