// Package export renders threshold impact rows for the command line.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/MelomanCat/getaround-project/core/impact"
)

var header = []string{
	"scope",
	"threshold",
	"impacted_count",
	"saved_count",
	"saved_percentage",
	"revenue_at_risk_percentage",
	"revenue_at_risk_amount",
	"efficiency_score",
}

func fields(r impact.Row) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		r.Scope.String(),
		strconv.Itoa(r.Threshold),
		strconv.Itoa(r.ImpactedCount),
		strconv.Itoa(r.SavedCount),
		f(r.SavedPercentage),
		f(r.RevenueAtRiskPercentage),
		f(r.RevenueAtRiskAmount),
		f(r.EfficiencyScore),
	}
}

// WriteJSON writes the rows to w as a JSON array.
func WriteJSON(w io.Writer, rows []impact.Row) error {
	if rows == nil {
		rows = []impact.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes the rows to w with a header line.
func WriteCSV(w io.Writer, rows []impact.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(fields(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes the rows as aligned columns.
func WriteTable(w io.Writer, rows []impact.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	line := func(cols []string) error {
		for _, c := range cols {
			if _, err := fmt.Fprint(tw, c, "\t"); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(tw)
		return err
	}
	if err := line(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := line(fields(r)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Write dispatches on format: "table", "json" or "csv".
func Write(w io.Writer, format string, rows []impact.Row) error {
	switch format {
	case "", "table":
		return WriteTable(w, rows)
	case "json":
		return WriteJSON(w, rows)
	case "csv":
		return WriteCSV(w, rows)
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}
}
