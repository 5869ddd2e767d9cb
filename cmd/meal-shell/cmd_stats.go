package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd(sh *shell) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show backend usage recorded on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			health, err := sh.metrics.GetStateHealth(cmd.Context(), sh.cfg.StatePath)
			if err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "State: %s (%s, %d request(s) recorded)\n", health.Path, health.Size, health.Requests)
			if sh.cfg.MetricsRetentionDays == 0 {
				fmt.Fprintln(sh.out, "Request metrics are disabled.")
			}

			usage, err := sh.metrics.GetDailyUsage(cmd.Context(), days)
			if err != nil {
				return err
			}
			if len(usage) == 0 {
				fmt.Fprintf(sh.out, "No requests in the last %d day(s).\n", days)
				return nil
			}

			w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "DAY\tREQUESTS\tCACHED\tFAILED\tAVG MS\t")
			for _, u := range usage {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.0f\t\n", u.Date, u.Requests, u.CacheHits, u.Failures, u.AvgLatencyMS)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "how many days to report")
	return cmd
}
