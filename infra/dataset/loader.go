// Package dataset reads the rental and pricing tables from CSV or XLSX
// files.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	coredataset "github.com/MelomanCat/getaround-project/core/dataset"
	"github.com/MelomanCat/getaround-project/core/model"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

var rentalColumns = []string{
	"rental_id",
	"car_id",
	"checkin_type",
	"delay_at_checkout_in_minutes",
	"previous_ended_rental_id",
	"time_delta_with_previous_rental_in_minutes",
}

var pricingColumns = append(append(append([]string{"rental_price_per_day"},
	model.CategoricalColumns...), model.NumericColumns...), model.BooleanColumns...)

func openTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return readTable(f, filepath.Ext(path))
}

func readTable(r io.Reader, ext string) (*table, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return readCSV(r)
	case ".xlsx":
		return readXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %q", ext)
	}
}

// LoadRentals reads the delay analysis table.
func LoadRentals(path string) ([]model.RentalRecord, error) {
	t, err := openTable(path)
	if err != nil {
		return nil, fmt.Errorf("rentals %s: %w", path, err)
	}
	return parseRentals(t)
}

// LoadPricing reads the pricing table.
func LoadPricing(path string) ([]model.PricingRecord, error) {
	t, err := openTable(path)
	if err != nil {
		return nil, fmt.Errorf("pricing %s: %w", path, err)
	}
	return parsePricing(t)
}

// Load reads both tables and freezes them into a snapshot.
func Load(rentalsPath, pricingPath string) (*coredataset.Snapshot, error) {
	log := logger.New("dataset")
	rentals, err := LoadRentals(rentalsPath)
	if err != nil {
		return nil, err
	}
	pricing, err := LoadPricing(pricingPath)
	if err != nil {
		return nil, err
	}
	snap := coredataset.NewSnapshot(rentals, pricing)
	log.Infof("loaded %d rentals (%d chained) and %d priced cars",
		len(rentals), len(snap.Chained()), len(pricing))
	return snap, nil
}

func parseRentals(t *table) ([]model.RentalRecord, error) {
	if err := t.require(rentalColumns...); err != nil {
		return nil, err
	}
	out := make([]model.RentalRecord, 0, len(t.rows))
	for i, row := range t.rows {
		if emptyRow(row) {
			continue
		}
		r, err := parseRental(t, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseRental(t *table, row []string) (model.RentalRecord, error) {
	var (
		r   model.RentalRecord
		err error
	)
	if r.RentalID, err = t.requiredInt(row, "rental_id"); err != nil {
		return r, err
	}
	if r.CarID, err = t.requiredInt(row, "car_id"); err != nil {
		return r, err
	}
	r.CheckinType = model.CheckinType(strings.ToLower(t.cell(row, "checkin_type")))
	r.State = t.cell(row, "state")
	if r.DelayAtCheckout, err = t.optFloat(row, "delay_at_checkout_in_minutes"); err != nil {
		return r, err
	}
	if r.PreviousRentalID, err = t.optInt(row, "previous_ended_rental_id"); err != nil {
		return r, err
	}
	if r.GapMinutes, err = t.optFloat(row, "time_delta_with_previous_rental_in_minutes"); err != nil {
		return r, err
	}
	return r, nil
}

func parsePricing(t *table) ([]model.PricingRecord, error) {
	if err := t.require(pricingColumns...); err != nil {
		return nil, err
	}
	out := make([]model.PricingRecord, 0, len(t.rows))
	for i, row := range t.rows {
		if emptyRow(row) {
			continue
		}
		p, err := parsePricingRow(t, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePricingRow(t *table, row []string) (model.PricingRecord, error) {
	var (
		p   model.PricingRecord
		err error
	)
	p.ModelKey = t.cell(row, "model_key")
	p.Fuel = t.cell(row, "fuel")
	p.PaintColor = t.cell(row, "paint_color")
	p.CarType = t.cell(row, "car_type")
	if p.Mileage, err = t.requiredFloat(row, "mileage"); err != nil {
		return p, err
	}
	if p.EnginePower, err = t.requiredFloat(row, "engine_power"); err != nil {
		return p, err
	}
	flags := map[string]*bool{
		"private_parking_available": &p.PrivateParkingAvailable,
		"has_gps":                   &p.HasGPS,
		"has_air_conditioning":      &p.HasAirConditioning,
		"automatic_car":             &p.AutomaticCar,
		"has_getaround_connect":     &p.HasGetaroundConnect,
		"has_speed_regulator":       &p.HasSpeedRegulator,
		"winter_tires":              &p.WinterTires,
	}
	for _, col := range model.BooleanColumns {
		if *flags[col], err = t.flag(row, col); err != nil {
			return p, err
		}
	}
	if p.RentalPricePerDay, err = t.requiredFloat(row, "rental_price_per_day"); err != nil {
		return p, err
	}
	return p, nil
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
