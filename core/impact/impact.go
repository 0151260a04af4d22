package impact

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/MelomanCat/getaround-project/core/model"
)

// ErrInvalidArgument is returned for malformed calculator input.
var ErrInvalidArgument = errors.New("invalid argument")

// Prices holds the mean daily price of each check-in category. They are used
// as a per-rental revenue proxy, not as transaction prices.
type Prices struct {
	Connect float64 `json:"connect"`
	Manual  float64 `json:"manual"`
}

// Validate rejects negative or non-finite prices.
func (p Prices) Validate() error {
	for name, v := range map[string]float64{"connect": p.Connect, "manual": p.Manual} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s mean price %v", ErrInvalidArgument, name, v)
		}
	}
	return nil
}

func (p Prices) of(r model.RentalRecord) float64 {
	if r.CheckinType.IsConnect() {
		return p.Connect
	}
	return p.Manual
}

// Result is the outcome of a threshold policy for one scope. Field order is
// the display contract.
type Result struct {
	ImpactedCount           int     `json:"impacted_count"`
	SavedCount              int     `json:"saved_count"`
	SavedPercentage         float64 `json:"saved_percentage"`
	RevenueAtRiskPercentage float64 `json:"revenue_at_risk_percentage"`
	RevenueAtRiskAmount     float64 `json:"revenue_at_risk_amount"`
	EfficiencyScore         float64 `json:"efficiency_score"`
}

// Compute evaluates a threshold policy over chained rentals. Every record
// must satisfy model.RentalRecord.Chained; use Eligible to filter a raw
// dataset first.
func Compute(records []model.RentalRecord, prices Prices, scope Scope, threshold int) (Result, error) {
	if !scope.Valid() {
		return Result{}, fmt.Errorf("%w: scope %s", ErrInvalidArgument, scope)
	}
	if threshold <= 0 {
		return Result{}, fmt.Errorf("%w: threshold must be positive, got %d", ErrInvalidArgument, threshold)
	}
	if err := prices.Validate(); err != nil {
		return Result{}, err
	}

	limit := float64(threshold)
	var (
		totalRevenue    float64
		impactedRevenue float64
		impacted        int
		saved           int
	)
	for i, r := range records {
		if !r.Chained() {
			return Result{}, fmt.Errorf("%w: record %d (rental %d) is missing previous rental, gap or delay",
				ErrInvalidArgument, i, r.RentalID)
		}
		if !scope.Includes(r) {
			continue
		}
		price := prices.of(r)
		totalRevenue += price

		gap := *r.GapMinutes
		if gap >= limit {
			continue
		}
		impacted++
		impactedRevenue += price
		if *r.DelayAtCheckout > gap {
			saved++
		}
	}

	res := Result{
		ImpactedCount:       impacted,
		SavedCount:          saved,
		RevenueAtRiskAmount: round(impactedRevenue, 2),
	}
	if totalRevenue > 0 {
		res.RevenueAtRiskPercentage = round(impactedRevenue/totalRevenue*100, 1)
	}
	if impacted > 0 {
		res.SavedPercentage = round(float64(saved)/float64(impacted)*100, 1)
	}
	if impactedRevenue > 0 {
		benefit := float64(saved) * scope.AveragePrice()
		res.EfficiencyScore = round(benefit/impactedRevenue*100, 1)
	}
	return res, nil
}

// Eligible keeps the rentals chained to a previous one with a known gap and
// delay.
func Eligible(records []model.RentalRecord) []model.RentalRecord {
	out := make([]model.RentalRecord, 0, len(records))
	for _, r := range records {
		if r.Chained() {
			out = append(out, r)
		}
	}
	return out
}

// round rounds the exact binary value of v to places decimals, ties to even.
func round(v float64, places int) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return r
}
