package analytics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MelomanCat/getaround-project/core/impact"
	"github.com/MelomanCat/getaround-project/core/model"
)

// GroupStats aggregates daily prices for one connectivity group.
type GroupStats struct {
	Cars      int     `json:"cars"`
	Revenue   float64 `json:"revenue"`
	MeanPrice float64 `json:"mean_price"`
}

// ConnectBreakdown compares cars with and without the connect kit.
type ConnectBreakdown struct {
	Connect      GroupStats `json:"connect"`
	NonConnect   GroupStats `json:"non_connect"`
	ConnectShare float64    `json:"connect_revenue_share"`
}

func groupStats(prices []float64) GroupStats {
	if len(prices) == 0 {
		return GroupStats{}
	}
	return GroupStats{
		Cars:      len(prices),
		Revenue:   floats.Sum(prices),
		MeanPrice: stat.Mean(prices, nil),
	}
}

// BreakdownByConnect splits the pricing table on has_getaround_connect.
func BreakdownByConnect(records []model.PricingRecord) ConnectBreakdown {
	var connect, other []float64
	for _, r := range records {
		if r.HasGetaroundConnect {
			connect = append(connect, r.RentalPricePerDay)
		} else {
			other = append(other, r.RentalPricePerDay)
		}
	}
	b := ConnectBreakdown{Connect: groupStats(connect), NonConnect: groupStats(other)}
	if total := b.Connect.Revenue + b.NonConnect.Revenue; total > 0 {
		b.ConnectShare = b.Connect.Revenue / total
	}
	return b
}

// MeanPrices returns the per-category mean daily prices used as the revenue
// proxy of the impact calculator.
func MeanPrices(records []model.PricingRecord) impact.Prices {
	b := BreakdownByConnect(records)
	return impact.Prices{Connect: b.Connect.MeanPrice, Manual: b.NonConnect.MeanPrice}
}
