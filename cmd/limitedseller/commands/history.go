package commands

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyRun   string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "How many runs to show.")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the item outcomes of a single run.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit n] [--run <run id>]",
	Short: "Shows previous runs.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := loadSettings()
		if err != nil {
			return err
		}
		store, err := openStore(ctx, s)
		if err != nil {
			return err
		}
		defer store.Close()

		if historyRun != "" {
			outcomes, err := store.Outcomes(ctx, historyRun)
			if err != nil {
				return err
			}
			t := newTable()
			t.AppendHeader(table.Row{"Asset ID", "Name", "Type", "Result", "Lowest", "Price", "Reason", "Detail"})
			for _, o := range outcomes {
				t.AppendRow(table.Row{
					o.AssetID, o.Name, o.Category, o.State,
					priceCell(o.MarketPrice), priceCell(o.TargetPrice), o.Reason, o.Detail,
				})
			}
			t.Render()
			return nil
		}

		runs, err := store.Runs(ctx, historyLimit)
		if err != nil {
			return err
		}
		t := newTable()
		t.AppendHeader(table.Row{"Run", "Started", "Took", "Pricing", "Listed", "No data", "Failed", "Flags"})
		for _, r := range runs {
			flags := ""
			if r.DryRun {
				flags += "dry-run "
			}
			if r.Interrupted {
				flags += "interrupted "
			}
			if r.PartialInventory {
				flags += "partial "
			}
			t.AppendRow(table.Row{
				r.ID,
				r.StartedAt.Local().Format(time.DateTime),
				r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
				r.Strategy,
				r.Listed,
				r.NoMarketData,
				r.Failed,
				flags,
			})
		}
		t.Render()
		return nil
	},
}
