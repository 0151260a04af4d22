package model

// CheckinType describes how a renter started a rental.
type CheckinType string

const (
	// CheckinConnect is a connectivity-enabled (remote, app based) check-in.
	CheckinConnect CheckinType = "connect"
	// CheckinMobile is a manual, in-person check-in.
	CheckinMobile CheckinType = "mobile"
)

// IsConnect reports whether the check-in used the connected car kit. Every
// other value is treated as a manual check-in.
func (c CheckinType) IsConnect() bool { return c == CheckinConnect }

// RentalRecord is one rental of the delay analysis dataset.
type RentalRecord struct {
	RentalID    int64       `json:"rental_id"`
	CarID       int64       `json:"car_id"`
	CheckinType CheckinType `json:"checkin_type"`
	State       string      `json:"state"`
	// DelayAtCheckout is the lateness of the return in minutes. Zero or
	// negative values mean the car came back on time or early.
	DelayAtCheckout *float64 `json:"delay_at_checkout_in_minutes,omitempty"`
	// PreviousRentalID links the rental to the one that ended just before
	// on the same car.
	PreviousRentalID *int64 `json:"previous_ended_rental_id,omitempty"`
	// GapMinutes is the planned time between the previous checkout and this
	// check-in.
	GapMinutes *float64 `json:"time_delta_with_previous_rental_in_minutes,omitempty"`
}

// Chained reports whether the record carries every field the threshold
// analysis needs.
func (r RentalRecord) Chained() bool {
	return r.PreviousRentalID != nil && r.GapMinutes != nil && r.DelayAtCheckout != nil
}

// Float returns a pointer to v. It keeps dataset fixtures short.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }
