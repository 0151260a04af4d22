// Package config loads the service configuration from a YAML or JSON file
// with GA_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/MelomanCat/getaround-project/core/metrics"
	"github.com/MelomanCat/getaround-project/infra/audit"
	"github.com/MelomanCat/getaround-project/infra/cache"
	"github.com/MelomanCat/getaround-project/infra/mqtt"
)

// EnvPrefix marks environment overrides; "__" separates nested keys, so
// GA_API__ADDRESS sets api.address.
const EnvPrefix = "GA_"

type Config struct {
	Data      DataConfig      `json:"data"`
	Training  TrainingConfig  `json:"training"`
	Registry  RegistryConfig  `json:"registry"`
	API       APIConfig       `json:"api"`
	Dashboard DashboardConfig `json:"dashboard"`
	Cache     cache.Config    `json:"cache"`
	Metrics   metrics.Config  `json:"metrics"`
	Audit     audit.Config    `json:"audit"`
	MQTT      mqtt.Config     `json:"mqtt"`
	Sentry    SentryConfig    `json:"sentry"`
	LogLevel  string          `json:"log_level"`
}

// Load reads path, applies environment overrides, defaults and validation.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Data.SetDefaults()
	c.Training.SetDefaults()
	c.Registry.SetDefaults()
	c.API.SetDefaults()
	c.Dashboard.SetDefaults()
	c.Cache.SetDefaults()
	c.Audit.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	validators := []struct {
		name string
		fn   func() error
	}{
		{"data", c.Data.Validate},
		{"training", c.Training.Validate},
		{"registry", c.Registry.Validate},
		{"api", c.API.Validate},
		{"dashboard", c.Dashboard.Validate},
		{"cache", c.Cache.Validate},
		{"metrics", c.Metrics.Validate},
		{"mqtt", c.MQTT.Validate},
	}
	for _, v := range validators {
		if err := v.fn(); err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log_level %s", c.LogLevel)
	}
	return nil
}
