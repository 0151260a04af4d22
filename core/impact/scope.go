package impact

import (
	"fmt"
	"strings"

	"github.com/MelomanCat/getaround-project/core/model"
)

// Scope selects which rentals a threshold policy applies to.
type Scope int

const (
	// ScopeAllVehicles applies the threshold to every car.
	ScopeAllVehicles Scope = iota + 1
	// ScopeConnectOnly applies the threshold to connect check-ins only.
	ScopeConnectOnly
)

// Average value of one averted conflict, per scope. These are not derived
// from the pricing dataset and differ from the per-category mean prices
// passed to Compute.
const (
	AllVehiclesAveragePrice = 120.7
	ConnectOnlyAveragePrice = 132.0
)

// Scopes lists every valid scope in display order.
var Scopes = []Scope{ScopeAllVehicles, ScopeConnectOnly}

// DefaultThresholds is the candidate menu offered by the dashboard.
var DefaultThresholds = []int{30, 60, 90, 120, 180}

func (s Scope) String() string {
	switch s {
	case ScopeAllVehicles:
		return "all"
	case ScopeConnectOnly:
		return "connect"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// Valid reports whether s is one of the defined scopes.
func (s Scope) Valid() bool {
	return s == ScopeAllVehicles || s == ScopeConnectOnly
}

// AveragePrice returns the unit value of one saved rental for the scope.
func (s Scope) AveragePrice() float64 {
	if s == ScopeConnectOnly {
		return ConnectOnlyAveragePrice
	}
	return AllVehiclesAveragePrice
}

// Includes reports whether the rental belongs to the scope.
func (s Scope) Includes(r model.RentalRecord) bool {
	if s == ScopeConnectOnly {
		return r.CheckinType.IsConnect()
	}
	return true
}

// ParseScope converts the textual form used by the API and CLI.
func ParseScope(v string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "all", "all_vehicles":
		return ScopeAllVehicles, nil
	case "connect", "connect_only":
		return ScopeConnectOnly, nil
	}
	return 0, fmt.Errorf("%w: unknown scope %q", ErrInvalidArgument, v)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: invalid scope %d", ErrInvalidArgument, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(b []byte) error {
	v, err := ParseScope(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
