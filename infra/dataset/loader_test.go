package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MelomanCat/getaround-project/core/model"
)

const rentalsCSV = `rental_id,car_id,checkin_type,state,delay_at_checkout_in_minutes,previous_ended_rental_id,time_delta_with_previous_rental_in_minutes
505000,363965,mobile,canceled,,,
507750,269550,mobile,ended,-81.0,,
511639,370585,connect,ended,-15.0,563782.0,570.0
519491,312389,mobile,ended,58.0,545639.0,420.0
`

const pricingCSV = `,model_key,mileage,engine_power,fuel,paint_color,car_type,private_parking_available,has_gps,has_air_conditioning,automatic_car,has_getaround_connect,has_speed_regulator,winter_tires,rental_price_per_day
0,Citroën,140411,100,diesel,black,convertible,True,True,False,False,True,True,True,106
1,Citroën,13929,317,petrol,grey,convertible,True,True,False,False,False,True,True,264
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadRentals_CSV(t *testing.T) {
	recs, err := LoadRentals(writeFile(t, "rentals.csv", rentalsCSV))
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, int64(505000), recs[0].RentalID)
	assert.Nil(t, recs[0].DelayAtCheckout)
	assert.Nil(t, recs[0].PreviousRentalID)
	assert.False(t, recs[0].Chained())

	r := recs[2]
	assert.Equal(t, model.CheckinConnect, r.CheckinType)
	assert.Equal(t, "ended", r.State)
	require.True(t, r.Chained())
	assert.Equal(t, int64(563782), *r.PreviousRentalID)
	assert.Equal(t, 570.0, *r.GapMinutes)
	assert.Equal(t, -15.0, *r.DelayAtCheckout)
}

func TestLoadRentals_MalformedCell(t *testing.T) {
	data := strings.Replace(rentalsCSV, "58.0", "late", 1)
	_, err := LoadRentals(writeFile(t, "rentals.csv", data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 5")
	assert.Contains(t, err.Error(), "delay_at_checkout_in_minutes")
}

func TestLoadRentals_MissingColumn(t *testing.T) {
	_, err := LoadRentals(writeFile(t, "rentals.csv", "rental_id,car_id\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
}

func TestLoadPricing_CSV(t *testing.T) {
	recs, err := LoadPricing(writeFile(t, "pricing.csv", pricingCSV))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	p := recs[0]
	assert.Equal(t, "Citroën", p.ModelKey)
	assert.Equal(t, 140411.0, p.Mileage)
	assert.Equal(t, "convertible", p.CarType)
	assert.True(t, p.PrivateParkingAvailable)
	assert.False(t, p.AutomaticCar)
	assert.True(t, p.HasGetaroundConnect)
	assert.Equal(t, 106.0, p.RentalPricePerDay)
	assert.False(t, recs[1].HasGetaroundConnect)
}

func TestLoadRentals_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]any{
		{"rental_id", "car_id", "checkin_type", "state", "delay_at_checkout_in_minutes", "previous_ended_rental_id", "time_delta_with_previous_rental_in_minutes"},
		{511639, 370585, "Connect", "ended", -15, 563782, 570},
		{505000, 363965, "mobile", "canceled"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "rentals.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	recs, err := LoadRentals(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Chained())
	assert.Equal(t, model.CheckinConnect, recs[0].CheckinType)
	assert.False(t, recs[1].Chained())
}

func TestLoad_Snapshot(t *testing.T) {
	snap, err := Load(writeFile(t, "rentals.csv", rentalsCSV), writeFile(t, "pricing.csv", pricingCSV))
	require.NoError(t, err)
	assert.Len(t, snap.Rentals, 4)
	assert.Len(t, snap.Chained(), 2)
	assert.Len(t, snap.Pricing, 2)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := LoadRentals(writeFile(t, "rentals.parquet", "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}
