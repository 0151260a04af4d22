package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MelomanCat/getaround-project/core/analytics"
	"github.com/MelomanCat/getaround-project/infra/dataset"
)

var delaysFlags struct {
	excludeOutliers bool
	json            bool
}

type delaysReport struct {
	Summary    analytics.DelaySummary     `json:"summary"`
	Statistics analytics.DelayStats       `json:"statistics"`
	Connect    analytics.ConnectBreakdown `json:"connect"`
}

var delaysCmd = &cobra.Command{
	Use:   "delays",
	Short: "Summarize checkout delays and connect revenue",
	RunE:  runDelays,
}

func init() {
	f := delaysCmd.Flags()
	f.BoolVar(&delaysFlags.excludeOutliers, "exclude-outliers", false, "drop delays outside 1.5 IQR before computing statistics")
	f.BoolVar(&delaysFlags.json, "json", false, "print the report as JSON")
	rootCmd.AddCommand(delaysCmd)
}

func runDelays(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snap, err := dataset.Load(cfg.Data.RentalsPath, cfg.Data.PricingPath)
	if err != nil {
		return err
	}
	rep := delaysReport{
		Summary:    analytics.SummarizeDelays(snap.Rentals),
		Statistics: analytics.DelayStatistics(snap.Rentals, delaysFlags.excludeOutliers),
		Connect:    analytics.BreakdownByConnect(snap.Pricing),
	}

	out := cmd.OutOrStdout()
	if delaysFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	s, st, c := rep.Summary, rep.Statistics, rep.Connect
	fmt.Fprintf(tw, "rentals with delay and gap\t%d\n", s.TotalRentals)
	fmt.Fprintf(tw, "late returns\t%d (%.1f%%)\n", s.DelayedRentals, s.DelayShare*100)
	fmt.Fprintf(tw, "late returns overrunning the gap\t%d (%.1f%%)\n", s.Conflicts, s.ConflictShare*100)
	fmt.Fprintf(tw, "late delays counted\t%d (%d outliers removed)\n", st.Count, st.OutliersRemoved)
	fmt.Fprintf(tw, "mean / median / max delay\t%.1f / %.1f / %.1f min\n", st.MeanMinutes, st.MedianMinutes, st.MaxMinutes)
	fmt.Fprintf(tw, "connect cars\t%d, mean %.2f/day\n", c.Connect.Cars, c.Connect.MeanPrice)
	fmt.Fprintf(tw, "other cars\t%d, mean %.2f/day\n", c.NonConnect.Cars, c.NonConnect.MeanPrice)
	fmt.Fprintf(tw, "connect revenue share\t%.1f%%\n", c.ConnectShare*100)
	return tw.Flush()
}
