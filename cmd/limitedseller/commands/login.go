package commands

import (
	"fmt"

	"limitedseller/lib/session"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Asks for a new session cookie, checks it and saves it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		con := newConsole()
		_, err = session.Store{Path: accountPath}.Prompt(con)
		if err != nil {
			return err
		}
		_, sess, err := connect(cmd.Context(), s, con)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (%d).\n", sess.Username, sess.UserId)
		return nil
	},
}
