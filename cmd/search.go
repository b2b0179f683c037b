package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/testovak/testovak/internal/ui"
	"github.com/testovak/testovak/pkg/dates"
	"github.com/testovak/testovak/pkg/extract"
	"github.com/testovak/testovak/pkg/intent"
	"github.com/testovak/testovak/pkg/match"
	"github.com/testovak/testovak/pkg/polling"
	"github.com/testovak/testovak/pkg/storage"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Manage the slot search",
}

var searchStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start searching for a slot of a test",
	RunE: func(cmd *cobra.Command, _ []string) error {
		testID, _ := cmd.Flags().GetString("test")
		fromDate, _ := cmd.Flags().GetString("from-date")
		toDate, _ := cmd.Flags().GetString("to-date")
		fromTime, _ := cmd.Flags().GetString("from-time")
		toTime, _ := cmd.Flags().GetString("to-time")
		noVerify, _ := cmd.Flags().GetBool("no-verify")

		in, err := buildIntent(testID, fromDate, toDate, fromTime, toTime, time.Now())
		if err != nil {
			return err
		}

		if !noVerify {
			if err := requirePortalURL(); err != nil {
				return err
			}
			client, err := newPortalClient(cmd)
			if err != nil {
				return err
			}
			doc, err := client.FetchListing(cmd.Context())
			if err != nil {
				return err
			}
			t, ok := extract.FindTest(extract.ExtractTests(doc, time.Now()), testID)
			if !ok {
				return fmt.Errorf("test %q is not on the listing page, see 'testovak tests'", testID)
			}
			if !t.IsAvailable {
				return fmt.Errorf("test %q (%s) is closed", testID, t.Title)
			}
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := intent.Save(cmd.Context(), db, in); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Searching %s on %s, %s - %s. Run 'testovak run' to start the worker.\n",
			testID, dateSpan(in.StartDate, in.EndDate), in.StartTime, in.EndTime)
		return nil
	},
}

// buildIntent validates the form values and returns a running intent.
func buildIntent(testID, fromDate, toDate, fromTime, toTime string, now time.Time) (intent.SearchIntent, error) {
	if testID == "" {
		return intent.SearchIntent{}, errors.New("--test is required")
	}
	start, ok := dates.Normalize(fromDate)
	if !ok {
		return intent.SearchIntent{}, fmt.Errorf("invalid --from-date %q, expected YYYY-MM-DD", fromDate)
	}
	end := ""
	if toDate != "" {
		if end, ok = dates.Normalize(toDate); !ok {
			return intent.SearchIntent{}, fmt.Errorf("invalid --to-date %q, expected YYYY-MM-DD", toDate)
		}
	}
	w := match.Window{StartDate: start, EndDate: end, StartTime: fromTime, EndTime: toTime}
	if err := w.Validate(); err != nil {
		return intent.SearchIntent{}, err
	}
	return intent.SearchIntent{
		IsRunning:       true,
		StartDate:       start,
		EndDate:         end,
		StartTime:       fromTime,
		EndTime:         toTime,
		TestID:          testID,
		RunnerStartTime: now,
	}, nil
}

var searchCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the running search",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := polling.New(polling.Config{Store: db}).Cancel(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Search cancelled.")
		return nil
	},
}

var searchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the search progress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		in, err := intent.Load(cmd.Context(), db)
		if err != nil {
			return err
		}
		passes, err := db.ListRecentPasses(cmd.Context(), 1)
		if err != nil {
			return err
		}
		var last *storage.PassRecord
		if len(passes) > 0 {
			last = &passes[0]
		}

		panel := statusPanel(in, last, viper.GetDuration("search.interval"), viper.GetInt("search.tolerance_days"), time.Now())
		fmt.Fprintln(cmd.OutOrStdout(), panel.Render(!ui.IsTerminal(os.Stdout)))
		return nil
	},
}

func statusPanel(in intent.SearchIntent, last *storage.PassRecord, interval time.Duration, toleranceDays int, now time.Time) ui.Panel {
	p := ui.Panel{Title: "testovak", State: "stopped", Progress: -1}
	if in.TestID == "" {
		p.Rows = []ui.Row{{Label: "Search", Value: "none, use 'testovak search start'"}}
		return p
	}
	if in.IsRunning {
		p.State = "searching"
	}
	p.Rows = []ui.Row{
		{Label: "Test", Value: in.TestID},
		{Label: "Dates", Value: dateSpan(in.StartDate, in.EndDate)},
		{Label: "Nearby", Value: dates.FormatDisplayRange(in.StartDate, in.EndDate, toleranceDays)},
		{Label: "Time", Value: in.StartTime + " - " + in.EndTime},
	}
	if in.IsRunning && !in.RunnerStartTime.IsZero() {
		p.Rows = append(p.Rows, ui.Row{Label: "Elapsed", Value: dates.FormatElapsed(in.RunnerStartTime, now)})
	}
	if last != nil {
		p.Rows = append(p.Rows,
			ui.Row{Label: "Last pass", Value: fmt.Sprintf("%s (%s)", humanize.Time(last.OccurredAt), last.Outcome)},
			ui.Row{Label: "Booking", Value: last.MatchLink},
		)
		if in.IsRunning && interval > 0 {
			p.Progress = float64(now.Sub(last.OccurredAt)) / float64(interval)
		}
	}
	return p
}

func dateSpan(start, end string) string {
	if end == "" || end == start {
		return dates.FormatDisplayDate(start)
	}
	return dates.FormatDisplayDate(start) + " - " + dates.FormatDisplayDate(end)
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchStartCmd, searchCancelCmd, searchStatusCmd)

	searchStartCmd.Flags().String("test", "", "Id of the test to search (see 'testovak tests')")
	searchStartCmd.Flags().String("from-date", "", "First acceptable day (YYYY-MM-DD)")
	searchStartCmd.Flags().String("to-date", "", "Last acceptable day (YYYY-MM-DD, default: same as --from-date)")
	searchStartCmd.Flags().String("from-time", "08:00", "Earliest acceptable slot time (HH:MM)")
	searchStartCmd.Flags().String("to-time", "19:00", "Latest acceptable slot time (HH:MM)")
	searchStartCmd.Flags().Bool("no-verify", false, "Do not check the test against the portal")
}
