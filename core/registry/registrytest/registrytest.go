// Package registrytest holds shared checks for registry backends.
package registrytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MelomanCat/getaround-project/core/registry"
)

// Run exercises a registry.Registry implementation. Backends call it from
// their own tests.
func Run(t *testing.T, reg registry.Registry) {
	t.Helper()
	ctx := context.Background()

	_, err := reg.Latest(ctx, "pricing")
	require.ErrorIs(t, err, registry.ErrNotFound)
	_, _, err = reg.LoadModel(ctx, "pricing", 0)
	require.ErrorIs(t, err, registry.ErrNotFound)

	run, err := reg.CreateRun(ctx, "getaround", map[string]string{"lambda": "1"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, registry.StatusRunning, run.Status)

	require.NoError(t, reg.LogMetric(ctx, run.ID, "mae", 12.5))
	require.NoError(t, reg.LogMetric(ctx, run.ID, "mae", 11.5))
	require.ErrorIs(t, reg.LogMetric(ctx, "missing", "mae", 1), registry.ErrNotFound)

	_, err = reg.RegisterModel(ctx, "pricing", run.ID)
	require.ErrorIs(t, err, registry.ErrNotFound, "registering without artifact must fail")

	require.NoError(t, reg.LogArtifact(ctx, run.ID, []byte("v1")))
	require.NoError(t, reg.FinishRun(ctx, run.ID, registry.StatusFinished))

	got, err := reg.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "getaround", got.Experiment)
	assert.Equal(t, registry.StatusFinished, got.Status)
	assert.Equal(t, "1", got.Params["lambda"])
	assert.Equal(t, 11.5, got.Metrics["mae"])
	assert.True(t, got.HasArtifact)
	assert.False(t, got.EndedAt.IsZero())
	_, err = reg.GetRun(ctx, "missing")
	require.ErrorIs(t, err, registry.ErrNotFound)

	v1, err := reg.RegisterModel(ctx, "pricing", run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)

	run2, err := reg.CreateRun(ctx, "getaround", nil)
	require.NoError(t, err)
	require.NoError(t, reg.LogArtifact(ctx, run2.ID, []byte("v2")))
	v2, err := reg.RegisterModel(ctx, "pricing", run2.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	latest, err := reg.Latest(ctx, "pricing")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, run2.ID, latest.RunID)

	v, data, err := reg.LoadModel(ctx, "pricing", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Version)
	assert.Equal(t, []byte("v2"), data)

	v, data, err = reg.LoadModel(ctx, "pricing", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, []byte("v1"), data)

	_, _, err = reg.LoadModel(ctx, "pricing", 3)
	require.ErrorIs(t, err, registry.ErrNotFound)
	_, _, err = reg.LoadModel(ctx, "other", 0)
	require.ErrorIs(t, err, registry.ErrNotFound)
}
