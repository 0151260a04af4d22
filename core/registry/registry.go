// Package registry tracks training runs and versioned model artifacts.
package registry

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a run or model version does not exist.
var ErrNotFound = errors.New("not found")

// Run statuses.
const (
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
)

// Run is one training execution with its parameters and metrics.
type Run struct {
	ID          string             `json:"id"`
	Experiment  string             `json:"experiment"`
	Status      string             `json:"status"`
	Params      map[string]string  `json:"params"`
	Metrics     map[string]float64 `json:"metrics"`
	HasArtifact bool               `json:"has_artifact"`
	StartedAt   time.Time          `json:"started_at"`
	EndedAt     time.Time          `json:"ended_at,omitempty"`
}

// ModelVersion is a registered artifact. Versions start at 1 and grow per
// model name.
type ModelVersion struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry stores runs and model versions.
type Registry interface {
	CreateRun(ctx context.Context, experiment string, params map[string]string) (Run, error)
	LogMetric(ctx context.Context, runID, key string, value float64) error
	LogArtifact(ctx context.Context, runID string, data []byte) error
	FinishRun(ctx context.Context, runID, status string) error
	GetRun(ctx context.Context, runID string) (Run, error)
	// RegisterModel creates the next version of name from the run artifact.
	RegisterModel(ctx context.Context, name, runID string) (ModelVersion, error)
	Latest(ctx context.Context, name string) (ModelVersion, error)
	// LoadModel returns the artifact of a version, 0 meaning the latest.
	LoadModel(ctx context.Context, name string, version int) (ModelVersion, []byte, error)
	Close() error
}
