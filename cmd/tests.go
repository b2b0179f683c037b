package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"
	"github.com/testovak/testovak/internal/utils"
	"github.com/testovak/testovak/pkg/dates"
	"github.com/testovak/testovak/pkg/exam"
	"github.com/testovak/testovak/pkg/extract"
)

const titleWidth = 60

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "List the tests on the portal listing page",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requirePortalURL(); err != nil {
			return err
		}
		onlyAvailable, _ := cmd.Flags().GetBool("available")

		client, err := newPortalClient(cmd)
		if err != nil {
			return err
		}
		doc, err := client.FetchListing(cmd.Context())
		if err != nil {
			return err
		}

		tests := extract.ExtractTests(doc, time.Now())
		if len(tests) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tests on the listing page.")
			return nil
		}
		for _, t := range tests {
			if gaps := extract.Gaps(t); len(gaps) > 0 {
				utils.Log.Debugf("Test %q is missing: %s", t.Title, strings.Join(gaps, ", "))
			}
		}
		printTests(cmd.OutOrStdout(), tests, onlyAvailable)
		return nil
	},
}

func printTests(w io.Writer, tests []exam.Test, onlyAvailable bool) {
	for _, t := range tests {
		if onlyAvailable && !t.IsAvailable {
			continue
		}
		id := t.ID
		if id == "" {
			id = "-"
		}
		title := strings.Split(wordwrap.WrapString(t.Title, titleWidth), "\n")
		fmt.Fprintf(w, "[%s] %s\n", id, title[0])
		for _, line := range title[1:] {
			fmt.Fprintf(w, "    %s\n", line)
		}

		status := "closed"
		if t.IsAvailable {
			status = "available"
		}
		fmt.Fprintf(w, "    %s - %s (%s)\n", formatPortalTime(t.OpenFrom), formatPortalTime(t.OpenTo), status)

		if len(t.AvailableDates) > 0 {
			days := make([]string, 0, len(t.AvailableDates))
			for _, d := range t.AvailableDates {
				days = append(days, d.ParsedDate)
			}
			fmt.Fprintf(w, "    dates: %s\n", strings.Join(days, ", "))
		}
	}
}

func formatPortalTime(t time.Time) string {
	if t.IsZero() {
		return "?"
	}
	return t.Format(dates.PortalLayout)
}

func init() {
	rootCmd.AddCommand(testsCmd)
	testsCmd.Flags().Bool("available", false, "Only list tests that are still open")
}
