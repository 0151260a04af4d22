package app

import (
	"fmt"

	"github.com/MelomanCat/getaround-project/config"
	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	coremon "github.com/MelomanCat/getaround-project/core/monitoring"
	"github.com/MelomanCat/getaround-project/core/registry"
	"github.com/MelomanCat/getaround-project/infra/logger"
	"github.com/MelomanCat/getaround-project/infra/monitoring"
	"github.com/MelomanCat/getaround-project/infra/mqtt"
	infraregistry "github.com/MelomanCat/getaround-project/infra/registry"
)

// Setup applies the log level, installs the Sentry monitor and builds the
// configured metrics sinks.
func Setup(cfg *config.Config) (coremetrics.MetricsSink, error) {
	logger.SetLevel(cfg.LogLevel)
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	return sink, nil
}

// OpenRegistry opens the configured registry backend.
func OpenRegistry(cfg config.RegistryConfig) (registry.Registry, error) {
	switch cfg.Backend {
	case "memory":
		return registry.NewMemoryRegistry(), nil
	case "sqlite":
		reg, err := infraregistry.NewSQLiteRegistry(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open registry %s: %w", cfg.Path, err)
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("unknown registry backend %s", cfg.Backend)
	}
}

// ConnectMQTT returns nil when no broker is configured.
func ConnectMQTT(cfg mqtt.Config) (*mqtt.PahoClient, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	c, err := mqtt.NewPahoClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}
	return c, nil
}

// CloseSink releases sink connections, such as the Influx write API.
func CloseSink(s coremetrics.MetricsSink) {
	if m, ok := s.(*coremetrics.MultiSink); ok {
		for _, inner := range m.Sinks {
			CloseSink(inner)
		}
		return
	}
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
}
