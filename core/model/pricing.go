package model

// CarFeatures describes a car listed on the marketplace. It is the input of
// the pricing model.
type CarFeatures struct {
	ModelKey                string  `json:"model_key"`
	Mileage                 float64 `json:"mileage"`
	EnginePower             float64 `json:"engine_power"`
	Fuel                    string  `json:"fuel"`
	PaintColor              string  `json:"paint_color"`
	CarType                 string  `json:"car_type"`
	PrivateParkingAvailable bool    `json:"private_parking_available"`
	HasGPS                  bool    `json:"has_gps"`
	HasAirConditioning      bool    `json:"has_air_conditioning"`
	AutomaticCar            bool    `json:"automatic_car"`
	HasGetaroundConnect     bool    `json:"has_getaround_connect"`
	HasSpeedRegulator       bool    `json:"has_speed_regulator"`
	WinterTires             bool    `json:"winter_tires"`
}

// PricingRecord is one car of the pricing dataset together with its daily
// rental price.
type PricingRecord struct {
	CarFeatures
	RentalPricePerDay float64 `json:"rental_price_per_day"`
}

// Categorical columns in encoding order.
var CategoricalColumns = []string{"model_key", "fuel", "paint_color", "car_type"}

// Numeric columns in encoding order.
var NumericColumns = []string{"mileage", "engine_power"}

// Boolean columns in encoding order.
var BooleanColumns = []string{
	"private_parking_available",
	"has_gps",
	"has_air_conditioning",
	"automatic_car",
	"has_getaround_connect",
	"has_speed_regulator",
	"winter_tires",
}

// Categorical returns the value of a categorical column.
func (c CarFeatures) Categorical(col string) string {
	switch col {
	case "model_key":
		return c.ModelKey
	case "fuel":
		return c.Fuel
	case "paint_color":
		return c.PaintColor
	case "car_type":
		return c.CarType
	}
	return ""
}

// Numeric returns the value of a numeric column.
func (c CarFeatures) Numeric(col string) float64 {
	switch col {
	case "mileage":
		return c.Mileage
	case "engine_power":
		return c.EnginePower
	}
	return 0
}

// Boolean returns the value of a boolean column.
func (c CarFeatures) Boolean(col string) bool {
	switch col {
	case "private_parking_available":
		return c.PrivateParkingAvailable
	case "has_gps":
		return c.HasGPS
	case "has_air_conditioning":
		return c.HasAirConditioning
	case "automatic_car":
		return c.AutomaticCar
	case "has_getaround_connect":
		return c.HasGetaroundConnect
	case "has_speed_regulator":
		return c.HasSpeedRegulator
	case "winter_tires":
		return c.WinterTires
	}
	return false
}
