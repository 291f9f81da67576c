package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(activateCmd)
}

var activateCmd = &cobra.Command{
	Use:   "activate [license key]",
	Short: "Binds a license key to this machine.",
	Args:  cobra.MaximumNArgs(1),
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

		var key string
		if len(args) > 0 {
			key = args[0]
		} else {
			key, err = newConsole().Prompt("License key: ")
			if err != nil {
				return err
			}
		}

		file, err := newLicenseManager(s, store).Activate(ctx, key)
		if err != nil {
			return err
		}
		fmt.Printf("License activated for hardware id %s... (%s)\n", file.Hwid[:16], file.System)
		return nil
	},
}
