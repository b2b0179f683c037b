package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/testovak/testovak/pkg/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent search passes (default 20)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		passes, err := db.ListRecentPasses(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(passes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No passes recorded yet.")
			return nil
		}
		printHistory(cmd.OutOrStdout(), passes)
		return nil
	},
}

func printHistory(w io.Writer, passes []storage.PassRecord) {
	for _, p := range passes {
		ts := p.OccurredAt.Local().Format("2006-01-02 15:04:05")
		fmt.Fprintf(w, "%s  %-14s  %-9s  %-10s  dates=%d slots=%d errors=%d",
			ts, humanize.Time(p.OccurredAt), p.Outcome, p.TestID, p.DatesChecked, p.SlotsSeen, p.FetchErrors)
		if p.MatchLink != "" {
			fmt.Fprintf(w, "  %s", p.MatchLink)
		}
		fmt.Fprintln(w)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "Number of recent passes to show")
}
