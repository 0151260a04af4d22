package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MelomanCat/getaround-project/core/analytics"
	"github.com/MelomanCat/getaround-project/core/impact"
	"github.com/MelomanCat/getaround-project/infra/dataset"
	"github.com/MelomanCat/getaround-project/pkg/export"
)

var impactFlags struct {
	format     string
	thresholds []int
	scope      string
}

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Evaluate minimum delay thresholds between rentals",
	RunE:  runImpact,
}

func init() {
	f := impactCmd.Flags()
	f.StringVar(&impactFlags.format, "format", "table", "output format: table, json or csv")
	f.IntSliceVar(&impactFlags.thresholds, "threshold", nil, "threshold in minutes, repeatable (defaults to dashboard.thresholds)")
	f.StringVar(&impactFlags.scope, "scope", "", "all or connect (defaults to both)")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var scope impact.Scope
	if impactFlags.scope != "" {
		if scope, err = impact.ParseScope(impactFlags.scope); err != nil {
			return err
		}
	}
	thresholds := cfg.Dashboard.Thresholds
	if len(impactFlags.thresholds) > 0 {
		thresholds = impactFlags.thresholds
	}

	snap, err := dataset.Load(cfg.Data.RentalsPath, cfg.Data.PricingPath)
	if err != nil {
		return err
	}
	rows, err := impact.Table(snap.Chained(), analytics.MeanPrices(snap.Pricing), thresholds)
	if err != nil {
		return fmt.Errorf("impact: %w", err)
	}
	if scope.Valid() {
		filtered := rows[:0]
		for _, r := range rows {
			if r.Scope == scope {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	return export.Write(cmd.OutOrStdout(), impactFlags.format, rows)
}
