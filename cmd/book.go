package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/testovak/testovak/pkg/polling"
)

var bookCmd = &cobra.Command{
	Use:   "book <slot-link>",
	Short: "Stop the search and open a slot's booking page right away",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		runner := polling.New(polling.Config{Store: db, Navigator: newNavigator(cmd)})
		if err := runner.SelectSlot(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Search stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bookCmd)
}
