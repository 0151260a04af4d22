package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(b)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordPrediction(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()

	ev := coremetrics.PredictionEvent{Items: 2, Outcome: "ok", ModelVersion: 3, Latency: 1500 * time.Microsecond, Time: now}
	if err := sink.RecordPrediction(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("prediction_request").
		AddTag("outcome", "ok").
		AddTag("model_version", "3").
		AddField("items", 2).
		AddField("latency_ms", 1.5).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if got := bodies(); len(got) != 1 || got[0] != exp {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordTrainingAndImpact(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()

	if err := sink.RecordTrainingRun(coremetrics.TrainingRunEvent{RunID: "r1", ModelName: "getaround-pricing", Version: 1, MAE: 10.12345, Time: now}); err != nil {
		t.Fatalf("training: %v", err)
	}
	if err := sink.RecordImpact(coremetrics.ImpactEvent{Scope: "connect", Threshold: 60, SavedRentals: 4, Time: now}); err != nil {
		t.Fatalf("impact: %v", err)
	}
	if err := sink.RecordModelReload(coremetrics.ModelReloadEvent{ModelName: "getaround-pricing", Version: 1, Source: "mqtt", Time: now}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := bodies()
	if len(got) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(got))
	}
	for i, want := range []string{"training_run,", "threshold_impact,", "model_reload,"} {
		if !strings.HasPrefix(got[i], want) {
			t.Errorf("body %d: expected prefix %q, got %q", i, want, got[i])
		}
	}
	if !strings.Contains(got[0], "mae=10.123") {
		t.Errorf("expected rounded mae in %q", got[0])
	}
	if !strings.Contains(got[1], "saved_rentals=4i") {
		t.Errorf("expected saved_rentals in %q", got[1])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
