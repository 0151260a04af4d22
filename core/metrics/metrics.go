package metrics

import "time"

// PredictionEvent describes one /predict request.
type PredictionEvent struct {
	Items        int
	Outcome      string
	ModelVersion int
	Latency      time.Duration
	Time         time.Time
}

// OutcomeOK marks a successful prediction; failures use the pricing error kind.
const OutcomeOK = "ok"

// MetricsSink records prediction requests for observability purposes.
type MetricsSink interface {
	RecordPrediction(ev PredictionEvent) error
}

// TrainingRunEvent captures the result of a training run.
type TrainingRunEvent struct {
	RunID     string
	ModelName string
	Version   int
	MAE       float64
	RMSE      float64
	R2        float64
	TrainRows int
	TestRows  int
	Duration  time.Duration
	Time      time.Time
}

// TrainingRunRecorder records training runs.
type TrainingRunRecorder interface {
	RecordTrainingRun(ev TrainingRunEvent) error
}

// ImpactEvent captures one threshold computation served by the dashboard.
type ImpactEvent struct {
	Scope               string
	Threshold           int
	ImpactedRentals     int
	SavedRentals        int
	ImpactedRevenue     float64
	ThresholdEfficiency float64
	Cached              bool
	Time                time.Time
}

// ImpactRecorder records threshold computations.
type ImpactRecorder interface {
	RecordImpact(ev ImpactEvent) error
}

// ModelReloadEvent records a model swap in the serving API.
type ModelReloadEvent struct {
	ModelName string
	Version   int
	Source    string
	Time      time.Time
}

// ModelReloadRecorder records model swaps.
type ModelReloadRecorder interface {
	RecordModelReload(ev ModelReloadEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) error   { return nil }
func (NopSink) RecordTrainingRun(TrainingRunEvent) error { return nil }
func (NopSink) RecordImpact(ImpactEvent) error           { return nil }
func (NopSink) RecordModelReload(ModelReloadEvent) error { return nil }
