package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/testovak/testovak/pkg/dates"
	"github.com/testovak/testovak/pkg/exam"
	"github.com/testovak/testovak/pkg/extract"
	"github.com/testovak/testovak/pkg/match"
)

var slotsCmd = &cobra.Command{
	Use:   "slots <day-url>",
	Short: "List the time slots of a day page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromTime, _ := cmd.Flags().GetString("from-time")
		toTime, _ := cmd.Flags().GetString("to-time")
		if _, _, err := dates.ParseClock(fromTime); err != nil {
			return fmt.Errorf("--from-time: %w", err)
		}
		if _, _, err := dates.ParseClock(toTime); err != nil {
			return fmt.Errorf("--to-time: %w", err)
		}

		day, ok := extract.DayFromURL(args[0])
		if !ok {
			return fmt.Errorf("%s is not a day page: missing day=YYYY-MM-DD", args[0])
		}

		client, err := newPortalClient(cmd)
		if err != nil {
			return err
		}
		slots, err := client.FetchTimeSlots(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No free slots on %s.\n", day)
			return nil
		}
		printSlots(cmd.OutOrStdout(), slots, fromTime, toTime)
		return nil
	},
}

func printSlots(out io.Writer, slots []exam.TimeSlot, fromTime, toTime string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tIN WINDOW\tLINK")
	for _, s := range slots {
		mark := ""
		if match.SlotInWindow(s, fromTime, toTime) {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.DateTime.Format(dates.PortalLayout), mark, s.Link)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(slotsCmd)
	slotsCmd.Flags().String("from-time", "00:00", "Start of the time window (HH:MM)")
	slotsCmd.Flags().String("to-time", "23:59", "End of the time window (HH:MM)")
}
