package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"limitedseller/lib/platforms/market/core"
	"limitedseller/lib/restyutil"
	"limitedseller/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	settingsPath string
	accountPath  string
	dbPath       string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:           "limitedseller",
	Short:         "limitedseller puts your limited items up for resale at (or above) the lowest current price.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
		if !verbose {
			return
		}
		output, err := restyutil.NewFilesystemOutput(".dev/resty")
		if err != nil {
			slog.Warn("failed to create http dump directory", "err", err)
			return
		}
		core.SetRestyInstrumentOutput(output)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsPath, "settings", "settings.json5", "The settings file.")
	flags.StringVar(&accountPath, "account", "account.json", "The file the session cookie is kept in.")
	flags.StringVar(&dbPath, "db", "", "The history database, overrides history_db in the settings.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output and dump http messages to .dev/resty.")
}

func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
