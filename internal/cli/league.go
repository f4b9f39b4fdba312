package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/dartleague/internal/api/response"
)

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"lb"},
		Short:   "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Leaderboard

			if err := client.Get("/api/v1/leaderboard", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newMatchupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matchups",
		Short: "Show this week's scheduled matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Matchups

			if err := client.Get("/api/v1/matchups", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show your completed matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.History

			if err := client.Get("/api/v1/me/history", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Look at matches",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "current",
		Short: "Show your next unfinished match",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.CurrentMatch

			if err := client.Get("/api/v1/me/match", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <match-id>",
		Short: "Show one match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Match

			if err := client.Get("/api/v1/matches/"+args[0], &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newReportCmd() *cobra.Command {
	var won, lost bool

	cmd := &cobra.Command{
		Use:   "report <match-id>",
		Short: "Report the result of your match",
		Long: `Report whether you won or lost. The result counts once your opponent
reports the same outcome; if the two reports disagree the match is disputed
until an admin reopens it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if won == lost {
				return fmt.Errorf("exactly one of --won or --lost is required")
			}

			var result response.ReportResult
			if err := client.Post("/api/v1/matches/"+args[0]+"/report", map[string]bool{"won": won}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&won, "won", false, "You won the match")
	cmd.Flags().BoolVar(&lost, "lost", false, "You lost the match")
	cmd.MarkFlagsMutuallyExclusive("won", "lost")
	cmd.MarkFlagsOneRequired("won", "lost")

	return cmd
}
