package commands

import (
	"fmt"
	"sort"

	"limitedseller/internal/pipeline"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderConfig(cfg pipeline.RunConfig) {
	t := newTable()
	t.SetTitle("Settings")
	t.AppendRow(table.Row{"Pricing", cfg.Strategy.String()})
	t.AppendRow(table.Row{"Item type", cfg.CategoryFilter.String()})
	t.AppendRow(table.Row{"Blacklisted", len(cfg.Blacklist)})
	t.AppendRow(table.Row{"Pacing", cfg.Pacing})
	if cfg.DryRun {
		t.AppendRow(table.Row{"Mode", "dry run"})
	}
	t.Render()
}

func priceCell(price int64) any {
	if price == 0 {
		return "-"
	}
	return price
}

func renderReport(report pipeline.RunReport) {
	if len(report.Outcomes) > 0 {
		t := newTable()
		t.AppendHeader(table.Row{"Asset ID", "Name", "Type", "Result", "Lowest", "Price", "Reason"})
		for _, o := range report.Outcomes {
			t.AppendRow(table.Row{
				o.Item.ID,
				o.Item.Name,
				o.Item.Category.String(),
				string(o.State),
				priceCell(o.MarketPrice),
				priceCell(o.TargetPrice),
				string(o.Reason),
			})
		}
		t.Render()
	}

	failures := report.FailuresByReason()
	if len(failures) > 0 {
		reasons := make([]string, 0, len(failures))
		for reason := range failures {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)

		t := newTable()
		t.AppendHeader(table.Row{"Reason", "Count"})
		for _, reason := range reasons {
			t.AppendRow(table.Row{reason, failures[pipeline.FailureReason(reason)]})
		}
		t.Render()
	}

	fmt.Println(report.Summary())
}
