package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/testovak/testovak/internal/ui"
	"github.com/testovak/testovak/internal/utils"
	"github.com/testovak/testovak/pkg/intent"
	"github.com/testovak/testovak/pkg/polling"
	"github.com/testovak/testovak/pkg/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the search worker until a slot is booked or the search is cancelled",
	RunE: func(cmd *cobra.Command, _ []string) error {
		once, _ := cmd.Flags().GetBool("once")
		keepIntent, _ := cmd.Flags().GetBool("keep-intent")

		if err := requirePortalURL(); err != nil {
			return err
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return err
		}
		lock, err := utils.NewWorkerLock(dbPath)
		if err != nil {
			return err
		}
		if err := lock.TryLock(); err != nil {
			if errors.Is(err, utils.ErrWorkerRunning) {
				return fmt.Errorf("%w (lock %s)", err, lock.Path())
			}
			return err
		}
		defer lock.Unlock()

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		client, err := newPortalClient(cmd)
		if err != nil {
			return err
		}

		utils.Log.Infof("Watching %s", client.ListingURL())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		cfg := runnerConfig(client, db, newNavigator(cmd))
		cfg.OnPass = func(res *polling.PassResult) {
			if err := db.LogPass(context.Background(), passRecord(res)); err != nil {
				utils.Log.Warnf("Could not log pass: %v", err)
			}
			reportPass(out, res)
		}
		runner := polling.New(cfg)

		var res *polling.PassResult
		if once {
			res, err = runner.RunPass(ctx)
			if err == nil {
				res, err = runner.Finish(ctx, res)
			}
		} else {
			res, err = runner.Run(ctx)
		}

		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			if keepIntent {
				fmt.Fprintln(out, "Interrupted, the search stays active.")
				return nil
			}
			if err := intent.Stop(context.Background(), db); err != nil {
				return err
			}
			fmt.Fprintln(out, "Interrupted, search cancelled.")
			return nil
		}
		if err != nil {
			return err
		}

		switch res.State {
		case polling.StateIdle:
			fmt.Fprintln(out, "No search running. Start one with 'testovak search start'.")
		case polling.StateInactive:
			fmt.Fprintln(out, "The listing page has no tests, nothing to search.")
		}
		return nil
	},
}

func passRecord(res *polling.PassResult) storage.PassRecord {
	rec := storage.PassRecord{
		OccurredAt:   res.StartedAt,
		TestID:       res.Intent.TestID,
		StartDate:    res.Intent.StartDate,
		EndDate:      res.Intent.EndDate,
		Outcome:      res.State.String(),
		DatesChecked: len(res.Dates),
		SlotsSeen:    res.SlotsSeen(),
		FetchErrors:  res.FetchErrors(),
	}
	if res.Match != nil {
		rec.MatchLink = res.Match.Link
	}
	return rec
}

func reportPass(w io.Writer, res *polling.PassResult) {
	switch res.State {
	case polling.StateFound:
		fmt.Fprintf(w, "%s %s %s\n",
			ui.SuccessStyle.Render("Found"),
			res.Match.DateTime.Format("Mon 2 January 15:04"),
			ui.LinkStyle.Render(res.Match.Link))
	case polling.StateExhausted:
		d := res.Display
		utils.Log.Infof("%s %s %s, %s: %d dates, %d slots, nothing yet (%s)",
			d.Name, d.DateRange, d.ExtendedRange, d.TimeRange, len(res.Dates), res.SlotsSeen(), d.Elapsed)
		for _, f := range res.DateFailures {
			utils.Log.Debugf("%s failed: %v", f.Date.ParsedDate, f.Err)
		}
	case polling.StateCancelled:
		fmt.Fprintln(w, ui.ErrorStyle.Render("Search cancelled."))
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("once", false, "Run a single pass and exit")
	runCmd.Flags().Bool("keep-intent", false, "Leave the search active when interrupted")
}
