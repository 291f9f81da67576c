package commands

import (
	"fmt"
	"strings"

	"limitedseller/internal/settings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "The 'config' subcommand shows and edits the settings file.",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the effective settings.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		blacklist := make([]string, len(s.Blacklist))
		for i, id := range s.Blacklist {
			blacklist[i] = fmt.Sprint(id)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Setting", "Value"})
		t.AppendRows([]table.Row{
			{"pricing_strategy", s.PricingStrategy},
			{"price_multiplier", s.PriceMultiplier},
			{"item_type", s.ItemType},
			{"blacklist", strings.Join(blacklist, ", ")},
			{"pacing_ms", s.PacingMs},
			{"price_concurrency", s.PriceConcurrency},
			{"browser_transport", s.BrowserTransport},
			{"history_db", s.HistoryDb},
			{"license.disabled", s.License.Disabled},
			{"notify.email", s.Notify.Email.Enabled()},
		})
		t.Render()
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Changes one setting and saves the file.",
	Long:  "Changes one setting and saves the file. Keys: " + strings.Join(settings.Keys, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		err = s.Set(args[0], args[1])
		if err != nil {
			return err
		}
		err = settings.Save(settingsPath, s)
		if err != nil {
			return err
		}
		fmt.Printf("%s updated.\n", args[0])
		return nil
	},
}
