package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry keeps everything in process memory.
type MemoryRegistry struct {
	mu        sync.RWMutex
	runs      map[string]*Run
	artifacts map[string][]byte
	versions  map[string][]ModelVersion
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		runs:      map[string]*Run{},
		artifacts: map[string][]byte{},
		versions:  map[string][]ModelVersion{},
	}
}

func (m *MemoryRegistry) CreateRun(_ context.Context, experiment string, params map[string]string) (Run, error) {
	r := &Run{
		ID:         uuid.NewString(),
		Experiment: experiment,
		Status:     StatusRunning,
		Params:     map[string]string{},
		Metrics:    map[string]float64{},
		StartedAt:  time.Now().UTC(),
	}
	for k, v := range params {
		r.Params[k] = v
	}
	m.mu.Lock()
	m.runs[r.ID] = r
	m.mu.Unlock()
	return cloneRun(r), nil
}

func (m *MemoryRegistry) LogMetric(_ context.Context, runID, key string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	r.Metrics[key] = value
	return nil
}

func (m *MemoryRegistry) LogArtifact(_ context.Context, runID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	m.artifacts[runID] = append([]byte(nil), data...)
	r.HasArtifact = true
	return nil
}

func (m *MemoryRegistry) FinishRun(_ context.Context, runID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	r.Status = status
	r.EndedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRegistry) GetRun(_ context.Context, runID string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[runID]
	if !ok {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return cloneRun(r), nil
}

func (m *MemoryRegistry) RegisterModel(_ context.Context, name, runID string) (ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artifacts[runID]; !ok {
		return ModelVersion{}, fmt.Errorf("artifact of run %s: %w", runID, ErrNotFound)
	}
	v := ModelVersion{
		Name:      name,
		Version:   len(m.versions[name]) + 1,
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
	}
	m.versions[name] = append(m.versions[name], v)
	return v, nil
}

func (m *MemoryRegistry) Latest(_ context.Context, name string) (ModelVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[name]
	if len(vs) == 0 {
		return ModelVersion{}, fmt.Errorf("model %s: %w", name, ErrNotFound)
	}
	return vs[len(vs)-1], nil
}

func (m *MemoryRegistry) LoadModel(_ context.Context, name string, version int) (ModelVersion, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[name]
	if version == 0 {
		version = len(vs)
	}
	if version < 1 || version > len(vs) {
		return ModelVersion{}, nil, fmt.Errorf("model %s version %d: %w", name, version, ErrNotFound)
	}
	v := vs[version-1]
	return v, append([]byte(nil), m.artifacts[v.RunID]...), nil
}

func (m *MemoryRegistry) Close() error { return nil }

func cloneRun(r *Run) Run {
	c := *r
	c.Params = make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		c.Params[k] = v
	}
	c.Metrics = make(map[string]float64, len(r.Metrics))
	for k, v := range r.Metrics {
		c.Metrics[k] = v
	}
	return c
}
