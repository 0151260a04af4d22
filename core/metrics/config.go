package metrics

import (
	"fmt"

	"github.com/MelomanCat/getaround-project/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddress serves /metrics when set, e.g. ":9090".
	PrometheusAddress string `json:"prometheus_address"`
}

// Validate checks every sink has a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type required", i)
		}
	}
	return nil
}
