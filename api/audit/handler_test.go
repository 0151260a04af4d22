package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MelomanCat/getaround-project/core/model"
	"github.com/MelomanCat/getaround-project/infra/audit"
)

func seededStore(t *testing.T) audit.Store {
	t.Helper()
	store, err := audit.Open(audit.Config{Path: filepath.Join(t.TempDir(), "predictions.jsonl")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []audit.Record{
		{RequestID: "a", Timestamp: base, Outcome: "ok", Input: []model.CarFeatures{{ModelKey: "BMW"}}, Prediction: []float64{120}},
		{RequestID: "b", Timestamp: base.Add(time.Hour), Outcome: "invalid_input", Error: "input[0].fuel: blank"},
		{RequestID: "c", Timestamp: base.Add(2 * time.Hour), Outcome: "ok", Prediction: []float64{90}},
	}
	for _, r := range recs {
		require.NoError(t, store.Append(context.Background(), r))
	}
	return store
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Filters(t *testing.T) {
	h := NewHandler(seededStore(t))

	rr := serve(h, "/audit/predictions")
	require.Equal(t, http.StatusOK, rr.Code)
	var all []audit.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	assert.Len(t, all, 3)

	rr = serve(h, "/audit/predictions?outcome=ok")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []audit.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].RequestID)
	assert.Equal(t, "c", out[1].RequestID)

	rr = serve(h, "/audit/predictions?start=2026-03-01T12:30:00Z&end=2026-03-01T13:30:00Z")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].RequestID)
}

func TestHandler_EmptyResult(t *testing.T) {
	h := NewHandler(audit.NopStore{})
	rr := serve(h, "/audit/predictions")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestHandler_BadTimes(t *testing.T) {
	h := NewHandler(audit.NopStore{})
	for _, target := range []string{
		"/audit/predictions?start=yesterday",
		"/audit/predictions?end=2026-13-01",
		"/audit/predictions?start=2026-03-02T00:00:00Z&end=2026-03-01T00:00:00Z",
	} {
		rr := serve(h, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}
