package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow live match and standings updates",
		Long: `Stay connected and print each match or standings change as it happens.
Press Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output(cmd)
			return client.Stream(cmd.Context(), "/api/v1/events", func(event, data string) error {
				out.PrintEvent(event, data)
				return nil
			})
		},
	}
}
