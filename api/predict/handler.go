// Package predict serves POST /predict.
package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MelomanCat/getaround-project/api"
	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	"github.com/MelomanCat/getaround-project/core/model"
	"github.com/MelomanCat/getaround-project/core/monitoring"
	"github.com/MelomanCat/getaround-project/core/pricing"
	"github.com/MelomanCat/getaround-project/infra/audit"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

const maxBodyBytes = 4 << 20

// Request is the body of POST /predict.
type Request struct {
	Input []model.CarFeatures `json:"input"`
}

// Response carries one price per input car, in input order.
type Response struct {
	Prediction []float64 `json:"prediction"`
}

// Versioned is implemented by predictors that know which registry version
// they serve.
type Versioned interface {
	Version() int
}

// Options configures the handler. Only Predictor is required.
type Options struct {
	Predictor pricing.Predictor
	Sink      coremetrics.MetricsSink
	Audit     audit.Store
	MaxBatch  int
	Log       logger.Logger
}

type handler struct {
	Options
}

// NewHandler returns the prediction handler.
func NewHandler(opts Options) http.Handler {
	if opts.Sink == nil {
		opts.Sink = coremetrics.NopSink{}
	}
	if opts.Audit == nil {
		opts.Audit = audit.NopStore{}
	}
	if opts.Log == nil {
		opts.Log = logger.NopLogger{}
	}
	return &handler{Options: opts}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req Request
	prediction, err := h.predict(w, r, &req)
	latency := time.Since(start)

	version := 0
	if v, ok := h.Predictor.(Versioned); ok {
		version = v.Version()
	}
	outcome := coremetrics.OutcomeOK
	if err != nil {
		outcome = string(pricing.KindOf(err))
	}
	h.record(r, req.Input, prediction, outcome, err, version, start, latency)

	if err != nil {
		h.fail(w, err, version)
		return
	}
	api.JSON(w, http.StatusOK, Response{Prediction: prediction})
}

func (h *handler) predict(w http.ResponseWriter, r *http.Request, req *Request) ([]float64, error) {
	var raw struct {
		Input []json.RawMessage `json:"input"`
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &pricing.PredictionError{Kind: pricing.KindInvalidInput, Err: errors.New("empty request body")}
		}
		return nil, &pricing.PredictionError{Kind: pricing.KindInvalidInput, Err: fmt.Errorf("malformed request body: %w", err)}
	}
	if h.MaxBatch > 0 && len(raw.Input) > h.MaxBatch {
		return nil, &pricing.PredictionError{Kind: pricing.KindInvalidInput, Err: fmt.Errorf("at most %d cars per request, got %d", h.MaxBatch, len(raw.Input))}
	}
	items, err := pricing.DecodeInput(raw.Input)
	if err != nil {
		return nil, err
	}
	req.Input = items
	return h.Predictor.Predict(r.Context(), req.Input)
}

func (h *handler) fail(w http.ResponseWriter, err error, version int) {
	kind := pricing.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case pricing.KindInvalidInput:
		status = http.StatusBadRequest
	case pricing.KindModelUnavailable:
		status = http.StatusServiceUnavailable
	default:
		monitoring.CaptureException(err, map[string]string{
			"module":        "predict",
			"kind":          string(kind),
			"model_version": fmt.Sprint(version),
		})
		h.Log.Errorf("prediction failed: %v", err)
	}
	msg := err.Error()
	var pe *pricing.PredictionError
	if errors.As(err, &pe) && pe.Err != nil {
		msg = pe.Err.Error()
	}
	api.Error(w, status, string(kind), msg)
}

func (h *handler) record(r *http.Request, input []model.CarFeatures, prediction []float64, outcome string, err error, version int, start time.Time, latency time.Duration) {
	ev := coremetrics.PredictionEvent{
		Items:        len(input),
		Outcome:      outcome,
		ModelVersion: version,
		Latency:      latency,
		Time:         start,
	}
	if serr := h.Sink.RecordPrediction(ev); serr != nil {
		h.Log.Warnf("record prediction metrics: %v", serr)
	}

	id := middleware.GetReqID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	rec := audit.Record{
		RequestID:    id,
		Timestamp:    start.UTC(),
		ModelVersion: version,
		Input:        input,
		Prediction:   prediction,
		Outcome:      outcome,
		LatencyMS:    float64(latency.Microseconds()) / 1000,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if aerr := h.Audit.Append(r.Context(), rec); aerr != nil {
		h.Log.Warnf("append audit record: %v", aerr)
	}
}
