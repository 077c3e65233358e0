package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var accountHeaders = []string{"NAME", "ENABLED", "LIVE", "FAILED_LOGINS", "NEXT_START", "STATUS"}

// NewAccountCmd создаёт группу команд для управления аккаунтами.
func NewAccountCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts"},
		Short:   "Inspect and control farmed accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(clientFn, outputFn),
		newAccountShowCmd(clientFn, outputFn),
		newAccountToggleCmd(clientFn, outputFn, true),
		newAccountToggleCmd(clientFn, outputFn, false),
	)

	return cmd
}

func newAccountListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var onlyDown bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			accounts, err := client.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			if onlyDown {
				filtered := accounts[:0]
				for _, a := range accounts {
					if a.Enabled && !a.Live {
						filtered = append(filtered, a)
					}
				}
				accounts = filtered
			}

			rows := make([][]string, len(accounts))
			for i, a := range accounts {
				rows[i] = accountRow(a)
			}

			out.Print(accountHeaders, rows, accounts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&onlyDown, "down", false, "Show only enabled accounts without a live worker")

	return cmd
}

func newAccountShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show account details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			account, err := client.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"NAME", "ENABLED", "LIVE", "STARTED_AT", "FAILED_LOGINS", "RESTARTS", "NEXT_START", "STATUS"},
				[][]string{{
					account.Name,
					strconv.FormatBool(account.Enabled),
					strconv.FormatBool(account.Live),
					formatTime(account.StartedAt),
					strconv.Itoa(account.FailedLogins),
					strconv.Itoa(account.RestartFailures),
					formatTime(account.NextStart),
					account.Status,
				}},
				account,
			)
			return nil
		},
	}
}

// newAccountToggleCmd создаёт enable или disable.
func newAccountToggleCmd(clientFn func() *Client, outputFn func() *Output, enabled bool) *cobra.Command {
	use, short, verb := "disable NAME", "Disable an account (its worker is dropped)", "disabled"
	if enabled {
		use, short, verb = "enable NAME", "Enable an account", "enabled"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			account, err := client.SetEnabled(cmd.Context(), args[0], enabled)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Account %s %s", account.Name, verb))
			out.Print(accountHeaders, [][]string{accountRow(*account)}, account)
			return nil
		},
	}
}

func accountRow(a AccountResponse) []string {
	return []string{
		a.Name,
		strconv.FormatBool(a.Enabled),
		strconv.FormatBool(a.Live),
		strconv.Itoa(a.FailedLogins),
		formatTime(a.NextStart),
		a.Status,
	}
}
