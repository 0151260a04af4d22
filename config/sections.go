package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/MelomanCat/getaround-project/core/impact"
	"github.com/MelomanCat/getaround-project/core/pricing"
)

// DataConfig locates the rental and pricing tables.
type DataConfig struct {
	RentalsPath string `json:"rentals_path"`
	PricingPath string `json:"pricing_path"`
}

func (c *DataConfig) SetDefaults() {
	if c.RentalsPath == "" {
		c.RentalsPath = "data/get_around_delay_analysis.xlsx"
	}
	if c.PricingPath == "" {
		c.PricingPath = "data/get_around_pricing_project.csv"
	}
}

func (c DataConfig) Validate() error { return nil }

// TrainingConfig controls the train command.
type TrainingConfig struct {
	ModelName    string  `json:"model_name"`
	Experiment   string  `json:"experiment"`
	TestFraction float64 `json:"test_fraction"`
	Seed         int64   `json:"seed"`
	Lambda       float64 `json:"lambda"`
}

func (c *TrainingConfig) SetDefaults() {
	if c.ModelName == "" {
		c.ModelName = "getaround-pricing"
	}
	if c.Experiment == "" {
		c.Experiment = "getaround"
	}
	if c.TestFraction == 0 {
		c.TestFraction = 0.2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Lambda == 0 {
		c.Lambda = 1
	}
}

func (c TrainingConfig) Validate() error {
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in (0,1), got %g", c.TestFraction)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("lambda must be non-negative, got %g", c.Lambda)
	}
	return nil
}

// Options converts the section to training options.
func (c TrainingConfig) Options() pricing.Options {
	return pricing.Options{TestFraction: c.TestFraction, Seed: c.Seed, Lambda: c.Lambda}
}

// RegistryConfig selects the model registry backend.
type RegistryConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

func (c *RegistryConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Path == "" {
		c.Path = "registry.db"
	}
}

func (c RegistryConfig) Validate() error {
	if c.Backend != "sqlite" && c.Backend != "memory" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	return nil
}

// APIConfig defines the HTTP server.
type APIConfig struct {
	Address string `json:"address"`
	// ModelPollInterval reloads the latest model periodically; zero disables polling.
	ModelPollInterval time.Duration `json:"model_poll_interval"`
	// MaxBatch bounds the number of cars per prediction request.
	MaxBatch        int           `json:"max_batch"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	// AllowedOrigins lists the CORS origins; "*" allows any.
	AllowedOrigins []string `json:"allowed_origins"`
}

func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8000"
	}
	if c.MaxBatch <= 0 {
		c.MaxBatch = 1000
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

func (c APIConfig) Validate() error {
	if c.ModelPollInterval < 0 {
		return errors.New("model_poll_interval must be non-negative")
	}
	return nil
}

// DashboardConfig defines the analytics views.
type DashboardConfig struct {
	Thresholds []int `json:"thresholds"`
}

func (c *DashboardConfig) SetDefaults() {
	if len(c.Thresholds) == 0 {
		c.Thresholds = append([]int(nil), impact.DefaultThresholds...)
	}
}

func (c DashboardConfig) Validate() error {
	for _, t := range c.Thresholds {
		if t < 0 {
			return fmt.Errorf("negative threshold %d", t)
		}
	}
	return nil
}
