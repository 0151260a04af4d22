// Package registry provides persistent model registry backends.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	core "github.com/MelomanCat/getaround-project/core/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    experiment TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    ended_at INTEGER NOT NULL DEFAULT 0,
    artifact BLOB
);
CREATE TABLE IF NOT EXISTS run_params (
    run_id TEXT NOT NULL REFERENCES runs(id),
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY(run_id, key)
);
CREATE TABLE IF NOT EXISTS run_metrics (
    run_id TEXT NOT NULL REFERENCES runs(id),
    key TEXT NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY(run_id, key)
);
CREATE TABLE IF NOT EXISTS model_versions (
    name TEXT NOT NULL,
    version INTEGER NOT NULL,
    run_id TEXT NOT NULL REFERENCES runs(id),
    created_at INTEGER NOT NULL,
    PRIMARY KEY(name, version)
);`

// SQLiteRegistry persists runs and model versions in a SQLite database.
type SQLiteRegistry struct {
	db *sql.DB
}

var _ core.Registry = (*SQLiteRegistry)(nil)

// NewSQLiteRegistry opens or creates the database and ensures schema.
func NewSQLiteRegistry(path string) (*SQLiteRegistry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRegistry{db: db}, nil
}

func (s *SQLiteRegistry) CreateRun(ctx context.Context, experiment string, params map[string]string) (core.Run, error) {
	run := core.Run{
		ID:         uuid.NewString(),
		Experiment: experiment,
		Status:     core.StatusRunning,
		Params:     map[string]string{},
		Metrics:    map[string]float64{},
		StartedAt:  time.Now().UTC(),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Run{}, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, experiment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Experiment, run.Status, run.StartedAt.UnixNano()); err != nil {
		return core.Run{}, err
	}
	for k, v := range params {
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_params (run_id, key, value) VALUES (?, ?, ?)`, run.ID, k, v); err != nil {
			return core.Run{}, err
		}
		run.Params[k] = v
	}
	if err := tx.Commit(); err != nil {
		return core.Run{}, err
	}
	return run, nil
}

func (s *SQLiteRegistry) runExists(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, runID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s: %w", runID, core.ErrNotFound)
	}
	return err
}

func (s *SQLiteRegistry) LogMetric(ctx context.Context, runID, key string, value float64) error {
	if err := s.runExists(ctx, s.db, runID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO run_metrics (run_id, key, value) VALUES (?, ?, ?)
        ON CONFLICT(run_id, key) DO UPDATE SET value = excluded.value`, runID, key, value)
	return err
}

func (s *SQLiteRegistry) LogArtifact(ctx context.Context, runID string, data []byte) error {
	return s.updateRun(ctx, runID, `UPDATE runs SET artifact = ? WHERE id = ?`, data, runID)
}

func (s *SQLiteRegistry) FinishRun(ctx context.Context, runID, status string) error {
	return s.updateRun(ctx, runID, `UPDATE runs SET status = ?, ended_at = ? WHERE id = ?`,
		status, time.Now().UTC().UnixNano(), runID)
}

func (s *SQLiteRegistry) updateRun(ctx context.Context, runID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, core.ErrNotFound)
	}
	return nil
}

func (s *SQLiteRegistry) GetRun(ctx context.Context, runID string) (core.Run, error) {
	var (
		run            core.Run
		started, ended int64
		hasArtifact    bool
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, experiment, status, started_at, ended_at, artifact IS NOT NULL
        FROM runs WHERE id = ?`, runID).Scan(&run.ID, &run.Experiment, &run.Status, &started, &ended, &hasArtifact)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Run{}, fmt.Errorf("run %s: %w", runID, core.ErrNotFound)
	}
	if err != nil {
		return core.Run{}, err
	}
	run.StartedAt = time.Unix(0, started).UTC()
	if ended > 0 {
		run.EndedAt = time.Unix(0, ended).UTC()
	}
	run.HasArtifact = hasArtifact

	run.Params = map[string]string{}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM run_params WHERE run_id = ?`, runID)
	if err != nil {
		return core.Run{}, err
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			_ = rows.Close()
			return core.Run{}, err
		}
		run.Params[k] = v
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return core.Run{}, err
	}

	run.Metrics = map[string]float64{}
	rows, err = s.db.QueryContext(ctx, `SELECT key, value FROM run_metrics WHERE run_id = ?`, runID)
	if err != nil {
		return core.Run{}, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var k string
		var v float64
		if err := rows.Scan(&k, &v); err != nil {
			return core.Run{}, err
		}
		run.Metrics[k] = v
	}
	if err := rows.Err(); err != nil {
		return core.Run{}, err
	}
	return run, nil
}

func (s *SQLiteRegistry) RegisterModel(ctx context.Context, name, runID string) (core.ModelVersion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.ModelVersion{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var hasArtifact bool
	err = tx.QueryRowContext(ctx, `SELECT artifact IS NOT NULL FROM runs WHERE id = ?`, runID).Scan(&hasArtifact)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !hasArtifact) {
		return core.ModelVersion{}, fmt.Errorf("artifact of run %s: %w", runID, core.ErrNotFound)
	}
	if err != nil {
		return core.ModelVersion{}, err
	}
	v := core.ModelVersion{Name: name, RunID: runID, CreatedAt: time.Now().UTC()}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM model_versions WHERE name = ?`, name).Scan(&v.Version); err != nil {
		return core.ModelVersion{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO model_versions (name, version, run_id, created_at) VALUES (?, ?, ?, ?)`,
		v.Name, v.Version, v.RunID, v.CreatedAt.UnixNano()); err != nil {
		return core.ModelVersion{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.ModelVersion{}, err
	}
	return v, nil
}

func (s *SQLiteRegistry) Latest(ctx context.Context, name string) (core.ModelVersion, error) {
	v, _, err := s.load(ctx, name, 0, false)
	return v, err
}

func (s *SQLiteRegistry) LoadModel(ctx context.Context, name string, version int) (core.ModelVersion, []byte, error) {
	return s.load(ctx, name, version, true)
}

func (s *SQLiteRegistry) load(ctx context.Context, name string, version int, withArtifact bool) (core.ModelVersion, []byte, error) {
	query := `SELECT v.name, v.version, v.run_id, v.created_at, r.artifact
        FROM model_versions v JOIN runs r ON r.id = v.run_id
        WHERE v.name = ?`
	args := []any{name}
	if version > 0 {
		query += ` AND v.version = ?`
		args = append(args, version)
	}
	query += ` ORDER BY v.version DESC LIMIT 1`

	var (
		v        core.ModelVersion
		created  int64
		artifact []byte
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&v.Name, &v.Version, &v.RunID, &created, &artifact)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ModelVersion{}, nil, fmt.Errorf("model %s version %d: %w", name, version, core.ErrNotFound)
	}
	if err != nil {
		return core.ModelVersion{}, nil, err
	}
	v.CreatedAt = time.Unix(0, created).UTC()
	if !withArtifact {
		artifact = nil
	}
	return v, artifact, nil
}

// Close closes the underlying database.
func (s *SQLiteRegistry) Close() error { return s.db.Close() }
