// Package dataset holds the in-memory tables shared by the analytics
// endpoints.
package dataset

import (
	"time"

	"github.com/MelomanCat/getaround-project/core/impact"
	"github.com/MelomanCat/getaround-project/core/model"
)

// Snapshot is a read-only view of both datasets. It is built once and
// shared between goroutines; callers must not modify the slices.
type Snapshot struct {
	Rentals  []model.RentalRecord
	Pricing  []model.PricingRecord
	LoadedAt time.Time

	chained []model.RentalRecord
}

// NewSnapshot freezes the given tables.
func NewSnapshot(rentals []model.RentalRecord, pricing []model.PricingRecord) *Snapshot {
	return &Snapshot{
		Rentals:  rentals,
		Pricing:  pricing,
		LoadedAt: time.Now().UTC(),
		chained:  impact.Eligible(rentals),
	}
}

// Chained returns the rentals usable by the impact calculator.
func (s *Snapshot) Chained() []model.RentalRecord { return s.chained }
