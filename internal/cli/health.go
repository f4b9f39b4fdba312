package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/dartleague/internal/api/response"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server is up and whether the saved session still works",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := HealthResult{Server: cfg.ServerURL}
			if err := client.Get("/api/v1/health", &result); err != nil {
				return err
			}

			if cfg.Token != "" {
				var me response.Player
				err := client.Get("/api/v1/me", &me)
				var apiErr *APIError
				switch {
				case err == nil:
					result.Session = me.Name
				case errors.As(err, &apiErr) && apiErr.Code == "UNAUTHORIZED":
					result.Session = sessionExpired
				default:
					return err
				}
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
