// Capsula CLI — инструмент командной строки для наблюдения за фермой
// и управления аккаунтами через HTTP API.
//
// Использование:
//
//	capsula [--api-url URL] [--json] <command> [subcommand] [flags]
//
// Команды:
//
//	account  Состояние и включение/выключение аккаунтов
//	events   Журнал событий worker'ов
//	live     Текущие общие данные
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Capsula/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "capsula",
		Short:         "Capsula CLI — inspect and control the account farm",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("CAPSULA_API_URL"); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewAccountCmd(clientFn, outputFn),
		cli.NewEventsCmd(clientFn, outputFn),
		cli.NewLiveCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
