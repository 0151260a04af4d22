package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `data:
  rentals_path: "rentals.csv"
  pricing_path: "pricing.csv"
training:
  lambda: 0.5
registry:
  backend: "memory"
api:
  address: ":9000"
  model_poll_interval: "30s"
dashboard:
  thresholds: [15, 45]
cache:
  backend: "redis"
  addr: "localhost:6379"
  ttl: "1m"
metrics:
  sinks:
    - type: "prometheus"
    - type: "influx"
      conf:
        url: "http://influx:8086"
        bucket: "getaround"
mqtt:
  broker: "tcp://localhost:1883"
  qos: 1
sentry:
  dsn: "https://key@sentry.example/1"
log_level: "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rentals.csv", cfg.Data.RentalsPath)
	assert.Equal(t, 0.5, cfg.Training.Lambda)
	assert.Equal(t, 0.2, cfg.Training.TestFraction)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, "getaround-pricing", cfg.Training.ModelName)
	assert.Equal(t, "memory", cfg.Registry.Backend)
	assert.Equal(t, ":9000", cfg.API.Address)
	assert.Equal(t, 30*time.Second, cfg.API.ModelPollInterval)
	assert.Equal(t, 1000, cfg.API.MaxBatch)
	assert.Equal(t, []int{15, 45}, cfg.Dashboard.Thresholds)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	require.Len(t, cfg.Metrics.Sinks, 2)
	assert.Equal(t, "influx", cfg.Metrics.Sinks[1].Type)
	assert.Equal(t, "getaround", cfg.Metrics.Sinks[1].Conf["bucket"])
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "getaround/models/registered", cfg.MQTT.Topic)
	assert.Equal(t, "https://key@sentry.example/1", cfg.Sentry.DSN)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("GA_API__ADDRESS", ":7000")
	t.Setenv("GA_TRAINING__SEED", "7")
	t.Setenv("GA_DASHBOARD__THRESHOLDS", "10,20")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.API.Address)
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, []int{10, 20}, cfg.Dashboard.Thresholds)
	assert.Equal(t, "sqlite", cfg.Registry.Backend)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.MQTT.Enabled())
	assert.Empty(t, cfg.MQTT.Topic)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"registry":{"backend":"memory"},"log_level":"warn"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown registry":  "registry:\n  backend: \"mlflow\"\n",
		"bad fraction":      "training:\n  test_fraction: 1.5\n",
		"negative lambda":   "training:\n  lambda: -1\n",
		"negative thresh":   "dashboard:\n  thresholds: [-1]\n",
		"redis no addr":     "cache:\n  backend: \"redis\"\n",
		"sink without type": "metrics:\n  sinks:\n    - conf: {}\n",
		"bad level":         "log_level: \"loud\"\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}

	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
