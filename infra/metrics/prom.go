package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
)

// PromSink records prediction, training and dashboard events in Prometheus
// metrics.
type PromSink struct {
	predictions  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	trainingRuns prometheus.Counter
	modelQuality *prometheus.GaugeVec
	impacts      *prometheus.CounterVec
	modelVersion *prometheus.GaugeVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	predictions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "getaround_predictions_total",
		Help: "Number of cars priced by the prediction endpoint",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	latency, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "getaround_prediction_latency_seconds",
		Help:    "Prediction request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	runs, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "getaround_training_runs_total",
		Help: "Number of completed training runs",
	}))
	if err != nil {
		return nil, err
	}
	quality, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "getaround_model_quality",
		Help: "Test split metrics of the last trained model",
	}, []string{"metric"}))
	if err != nil {
		return nil, err
	}
	impacts, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "getaround_impact_computations_total",
		Help: "Threshold impact computations served by the dashboard",
	}, []string{"scope", "cached"}))
	if err != nil {
		return nil, err
	}
	version, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "getaround_model_version",
		Help: "Version of the model currently served",
	}, []string{"model"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{
		predictions:  predictions,
		latency:      latency,
		trainingRuns: runs,
		modelQuality: quality,
		impacts:      impacts,
		modelVersion: version,
	}, nil
}

// register reuses an already registered collector of the same shape.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// RecordPrediction counts priced cars and observes latency.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	s.predictions.WithLabelValues(ev.Outcome).Add(float64(ev.Items))
	s.latency.WithLabelValues(ev.Outcome).Observe(ev.Latency.Seconds())
	return nil
}

// RecordTrainingRun counts the run and exposes its test metrics.
func (s *PromSink) RecordTrainingRun(ev coremetrics.TrainingRunEvent) error {
	s.trainingRuns.Inc()
	s.modelQuality.WithLabelValues("mae").Set(ev.MAE)
	s.modelQuality.WithLabelValues("rmse").Set(ev.RMSE)
	s.modelQuality.WithLabelValues("r2").Set(ev.R2)
	return nil
}

// RecordImpact counts dashboard impact computations.
func (s *PromSink) RecordImpact(ev coremetrics.ImpactEvent) error {
	s.impacts.WithLabelValues(ev.Scope, strconv.FormatBool(ev.Cached)).Inc()
	return nil
}

// RecordModelReload sets the served model version.
func (s *PromSink) RecordModelReload(ev coremetrics.ModelReloadEvent) error {
	s.modelVersion.WithLabelValues(ev.ModelName).Set(float64(ev.Version))
	return nil
}
