package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MelomanCat/getaround-project/core/model"
)

// DelaySummary counts late returns and the conflicts they caused.
type DelaySummary struct {
	TotalRentals   int     `json:"total_rentals"`
	DelayedRentals int     `json:"delayed_rentals"`
	DelayShare     float64 `json:"delay_share"`
	Conflicts      int     `json:"conflicts"`
	ConflictShare  float64 `json:"conflict_share"`
}

// DelayStats describes the distribution of checkout delays of late rentals.
type DelayStats struct {
	Count           int     `json:"count"`
	MeanMinutes     float64 `json:"mean_minutes"`
	MedianMinutes   float64 `json:"median_minutes"`
	MaxMinutes      float64 `json:"max_minutes"`
	OutliersRemoved int     `json:"outliers_removed"`
}

// measured keeps the rentals with both a delay and a gap.
func measured(records []model.RentalRecord) []model.RentalRecord {
	out := make([]model.RentalRecord, 0, len(records))
	for _, r := range records {
		if r.DelayAtCheckout != nil && r.GapMinutes != nil {
			out = append(out, r)
		}
	}
	return out
}

// SummarizeDelays reports how many rentals came back late and how many of
// those late returns overran the gap before the next rental.
func SummarizeDelays(records []model.RentalRecord) DelaySummary {
	valid := measured(records)
	s := DelaySummary{TotalRentals: len(valid)}
	for _, r := range valid {
		if *r.DelayAtCheckout <= 0 {
			continue
		}
		s.DelayedRentals++
		if *r.DelayAtCheckout > *r.GapMinutes {
			s.Conflicts++
		}
	}
	if s.TotalRentals > 0 {
		s.DelayShare = float64(s.DelayedRentals) / float64(s.TotalRentals)
	}
	if s.DelayedRentals > 0 {
		s.ConflictShare = float64(s.Conflicts) / float64(s.DelayedRentals)
	}
	return s
}

// LateDelays returns the positive checkout delays of measured rentals.
func LateDelays(records []model.RentalRecord) []float64 {
	var out []float64
	for _, r := range measured(records) {
		if *r.DelayAtCheckout > 0 {
			out = append(out, *r.DelayAtCheckout)
		}
	}
	return out
}

// FilterOutliersIQR drops values outside [Q1-1.5*IQR, Q3+1.5*IQR]. The
// input is not modified.
func FilterOutliersIQR(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// DelayStatistics computes mean, median and max delay of late rentals,
// optionally after IQR outlier removal.
func DelayStatistics(records []model.RentalRecord, excludeOutliers bool) DelayStats {
	delays := LateDelays(records)
	total := len(delays)
	if excludeOutliers {
		delays = FilterOutliersIQR(delays)
	}
	st := DelayStats{Count: len(delays), OutliersRemoved: total - len(delays)}
	if len(delays) == 0 {
		return st
	}
	sort.Float64s(delays)
	st.MeanMinutes = stat.Mean(delays, nil)
	st.MedianMinutes = quantile(delays, 0.5)
	st.MaxMinutes = floats.Max(delays)
	return st
}

// quantile interpolates linearly between the closest ranks of sorted
// (h = (n-1)p), so the median of an even sample is the mean of the two
// middle values.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo, hi := math.Floor(h), math.Ceil(h)
	a, b := sorted[int(lo)], sorted[int(hi)]
	return a + (h-lo)*(b-a)
}
