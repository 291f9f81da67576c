package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"limitedseller/internal/eventlog"
	"limitedseller/internal/notify"
	"limitedseller/internal/pipeline"
	"limitedseller/lib/platforms/market/economy"
	"limitedseller/lib/platforms/market/inventory"

	"github.com/spf13/cobra"
)

var (
	dryRun     bool
	assumeYes  bool
	eventsPath string
)

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Price every item but do not list anything.")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation before listing.")
	runCmd.Flags().StringVar(&eventsPath, "events", "", "Append one JSON line per item outcome to this file.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--dry-run] [--yes] [--events <path>]",
	Short: "Lists every limited in the inventory according to the settings.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := loadSettings()
		if err != nil {
			return err
		}
		cfg, err := s.RunConfig(dryRun)
		if err != nil {
			return err
		}

		store, err := openStore(ctx, s)
		if err != nil {
			return err
		}
		defer store.Close()

		con := newConsole()
		if !s.License.Disabled {
			err = ensureLicense(ctx, newLicenseManager(s, store), con)
			if err != nil {
				return err
			}
		}

		client, _, err := connect(ctx, s, con)
		if err != nil {
			return err
		}

		renderConfig(cfg)
		if !assumeYes {
			ok, err := con.Confirm("Start listing limiteds?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		events, err := eventlog.Open(eventsPath)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer events.Close()

		economyClient := economy.NewClient(client)
		orchestrator := pipeline.Orchestrator{
			Inventory: pipeline.MarketInventory{Fetcher: inventory.NewClient(client)},
			Oracle:    economyClient,
			Lister:    pipeline.MarketLister{Lister: economyClient},
			OnOutcome: func(runID string, outcome pipeline.ItemOutcome) {
				err := events.Write(eventlog.FromOutcome(runID, time.Now(), outcome))
				if err != nil {
					slog.Warn("failed to write outcome event", "err", err)
				}
			},
		}
		report, err := orchestrator.Run(ctx, cfg)
		if err != nil {
			return err
		}

		renderReport(report)

		// the run may have been stopped by a signal, its report is kept anyway
		persistCtx := context.WithoutCancel(ctx)
		err = store.SaveRun(persistCtx, report, cfg)
		if err != nil {
			slog.Error("failed to save run history", "err", err)
		}
		if s.Notify.Email.Enabled() {
			err = notify.NewMailer(s.Notify.Email).SendReport(persistCtx, report)
			if err != nil {
				slog.Warn("failed to send summary email", "err", err)
			}
		}
		return nil
	},
}
