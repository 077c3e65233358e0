package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewEventsCmd создаёт команду просмотра журнала событий.
func NewEventsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListEventsOpts

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show worker lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			opts.Kind = strings.ToUpper(opts.Kind)
			events, err := client.ListEvents(cmd.Context(), opts)
			if err != nil {
				return err
			}

			headers := []string{"TIME", "ACCOUNT", "KIND", "FAILED_LOGINS", "NEXT_START", "MESSAGE"}
			rows := make([][]string, len(events))
			for i, e := range events {
				rows[i] = []string{
					formatTime(e.CreatedAt), e.Account, e.Kind,
					strconv.Itoa(e.FailedLogins), formatTime(e.NextStart), e.Message,
				}
			}

			out.Print(headers, rows, events)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Account, "account", "", "Filter by account")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Filter by kind (e.g. WORKER_TERMINATED)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Max events to show (server default 50)")

	return cmd
}

// NewLiveCmd создаёт команду просмотра текущих общих данных.
func NewLiveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Show the shared live data workers are watching",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			live, err := client.GetLive(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(live.Matches))
			for i, m := range live.Matches {
				rows[i] = []string{m.ID, m.League, m.Title}
			}

			if !out.jsonMode {
				out.Success("version " + strconv.FormatUint(live.Version, 10) + ", fetched " + formatTime(live.FetchedAt))
			}
			out.Print([]string{"ID", "LEAGUE", "TITLE"}, rows, live)
			return nil
		},
	}
}
