package metrics

import "errors"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the event to all sinks and joins their errors.
func (m *MultiSink) RecordPrediction(ev PredictionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordPrediction(ev))
	}
	return errors.Join(errs...)
}

// RecordTrainingRun forwards training runs to sinks supporting them.
func (m *MultiSink) RecordTrainingRun(ev TrainingRunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TrainingRunRecorder); ok {
			errs = append(errs, rec.RecordTrainingRun(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordImpact forwards impact computations to sinks supporting them.
func (m *MultiSink) RecordImpact(ev ImpactEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ImpactRecorder); ok {
			errs = append(errs, rec.RecordImpact(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordModelReload forwards model swaps to sinks supporting them.
func (m *MultiSink) RecordModelReload(ev ModelReloadEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ModelReloadRecorder); ok {
			errs = append(errs, rec.RecordModelReload(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordTrainingRun sends ev to s when it supports training runs.
func RecordTrainingRun(s MetricsSink, ev TrainingRunEvent) error {
	if rec, ok := s.(TrainingRunRecorder); ok {
		return rec.RecordTrainingRun(ev)
	}
	return nil
}

// RecordImpact sends ev to s when it supports impact events.
func RecordImpact(s MetricsSink, ev ImpactEvent) error {
	if rec, ok := s.(ImpactRecorder); ok {
		return rec.RecordImpact(ev)
	}
	return nil
}

// RecordModelReload sends ev to s when it supports model reloads.
func RecordModelReload(s MetricsSink, ev ModelReloadEvent) error {
	if rec, ok := s.(ModelReloadRecorder); ok {
		return rec.RecordModelReload(ev)
	}
	return nil
}
