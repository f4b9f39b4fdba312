package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/dartleague/internal/api/response"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "League administration (admins only)",
	}

	cmd.AddCommand(newAdminPlayerCmd())
	cmd.AddCommand(newAdminMatchCmd())
	cmd.AddCommand(newAdminWeekCmd())

	return cmd
}

// changedStrings copies the string flags the user set into body under their JSON names
func changedStrings(cmd *cobra.Command, body map[string]any, flags map[string]string) {
	for flag, field := range flags {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			body[field] = v
		}
	}
}

func changedInts(cmd *cobra.Command, body map[string]any, flags map[string]string) {
	for flag, field := range flags {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetInt(flag)
			body[field] = v
		}
	}
}

func newAdminPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "player",
		Aliases: []string{"players"},
		Short:   "Manage the roster",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every player",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Player
			if err := client.Get("/api/v1/admin/players", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <player-id>",
		Short: "Show one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Player
			if err := client.Get("/api/v1/admin/players/"+args[0], &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(newAdminPlayerAddCmd())
	cmd.AddCommand(newAdminPlayerUpdateCmd())

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <player-id>",
		Short: "Remove a player with no open matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/admin/players/" + args[0]); err != nil {
				return err
			}
			output(cmd).PrintMessage(fmt.Sprintf("Deleted player %s", args[0]))
			return nil
		},
	})

	cmd.AddCommand(newAdminPlayerRankCmd())

	return cmd
}

func newAdminPlayerAddCmd() *cobra.Command {
	var (
		name, email, schoolEmail, personalEmail, phone, password string
		admin                                                    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a player at the bottom of the ladder",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"name":           name,
				"email":          email,
				"school_email":   schoolEmail,
				"personal_email": personalEmail,
				"phone":          phone,
				"password":       password,
				"is_admin":       admin,
			}
			var result response.Player
			if err := client.Post("/api/v1/admin/players", req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&schoolEmail, "school-email", "", "School email")
	cmd.Flags().StringVar(&personalEmail, "personal-email", "", "Personal email")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&password, "password", "", "Initial password, at least 8 characters (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant admin rights")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAdminPlayerUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <player-id>",
		Short: "Change a player's details or record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			changedStrings(cmd, req, map[string]string{
				"name":           "name",
				"email":          "email",
				"school-email":   "school_email",
				"personal-email": "personal_email",
				"phone":          "phone",
				"password":       "password",
			})
			changedInts(cmd, req, map[string]string{
				"wins":   "wins",
				"losses": "losses",
			})
			if cmd.Flags().Changed("admin") {
				v, _ := cmd.Flags().GetBool("admin")
				req["is_admin"] = v
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var result response.Player
			if err := client.Patch("/api/v1/admin/players/"+args[0], req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("school-email", "", "School email")
	cmd.Flags().String("personal-email", "", "Personal email")
	cmd.Flags().String("phone", "", "Phone number")
	cmd.Flags().String("password", "", "New password")
	cmd.Flags().Int("wins", 0, "Set the win count")
	cmd.Flags().Int("losses", 0, "Set the loss count")
	cmd.Flags().Bool("admin", false, "Grant or revoke admin rights")

	return cmd
}

func newAdminPlayerRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank <player-id>",
		Short: "Move a player on the ladder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			changedInts(cmd, req, map[string]string{
				"rank":     "rank",
				"previous": "previous_rank",
			})

			var result response.Player
			if err := client.Put("/api/v1/admin/players/"+args[0]+"/rank", req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().Int("rank", 0, "New rank, 1 is the top")
	cmd.Flags().Int("previous", 0, "Override last week's rank")
	cmd.MarkFlagsOneRequired("rank", "previous")

	return cmd
}

func newAdminMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "match",
		Aliases: []string{"matches"},
		Short:   "Manage the schedule",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every match",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Match
			if err := client.Get("/api/v1/admin/matches", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(newAdminMatchCreateCmd())
	cmd.AddCommand(newAdminMatchUpdateCmd())

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <match-id>",
		Short: "Delete a match that has not been confirmed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/admin/matches/" + args[0]); err != nil {
				return err
			}
			output(cmd).PrintMessage(fmt.Sprintf("Deleted match %s", args[0]))
			return nil
		},
	})

	for _, action := range []struct{ use, short string }{
		{"cancel", "Cancel a match"},
		{"reopen", "Clear the reports on a disputed match"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   action.use + " <match-id>",
			Short: action.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var result response.Match
				if err := client.Post("/api/v1/admin/matches/"+args[0]+"/"+action.use, nil, &result); err != nil {
					return err
				}
				output(cmd).Print(result)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile [match-id]",
		Short: "Apply standings for confirmed matches that missed them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/admin/reconcile"
			if len(args) == 1 {
				path = "/api/v1/admin/matches/" + args[0] + "/reconcile"
			}
			var result response.Reconciled
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newAdminMatchCreateCmd() *cobra.Command {
	var (
		player1, player2, notes string
		when                    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a match between two players",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := time.Parse(time.RFC3339, when)
			if err != nil {
				return fmt.Errorf("--date must be RFC 3339, e.g. 2026-03-02T18:00:00Z: %w", err)
			}

			req := map[string]any{
				"player1_id":     player1,
				"player2_id":     player2,
				"date_scheduled": at,
				"notes":          notes,
			}
			var result response.Match
			if err := client.Post("/api/v1/admin/matches", req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&player1, "player1", "", "First player id (required)")
	cmd.Flags().StringVar(&player2, "player2", "", "Second player id (required)")
	cmd.Flags().StringVar(&when, "date", "", "Scheduled time, RFC 3339 (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("player1")
	_ = cmd.MarkFlagRequired("player2")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newAdminMatchUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <match-id>",
		Short: "Edit a scheduled match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			changedStrings(cmd, req, map[string]string{
				"player1": "player1_id",
				"player2": "player2_id",
				"notes":   "notes",
			})
			if cmd.Flags().Changed("date") {
				raw, _ := cmd.Flags().GetString("date")
				at, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return fmt.Errorf("--date must be RFC 3339: %w", err)
				}
				req["date_scheduled"] = at
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var result response.Match
			if err := client.Patch("/api/v1/admin/matches/"+args[0], req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().String("player1", "", "First player id")
	cmd.Flags().String("player2", "", "Second player id")
	cmd.Flags().String("date", "", "Scheduled time, RFC 3339")
	cmd.Flags().String("notes", "", "Free-form notes")

	return cmd
}

func newAdminWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Weekly ladder housekeeping",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "advance",
		Short: "Snapshot this week's ranks so next week's movement starts from zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Leaderboard
			if err := client.Post("/api/v1/admin/week/advance", nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "label <text>",
		Short: "Set the heading shown above the matchups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.WeekLabel
			if err := client.Put("/api/v1/admin/week", map[string]string{"label": args[0]}, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}
