package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	"github.com/MelomanCat/getaround-project/core/model"
	coremon "github.com/MelomanCat/getaround-project/core/monitoring"
	coremqtt "github.com/MelomanCat/getaround-project/core/mqtt"
	"github.com/MelomanCat/getaround-project/core/pricing"
	"github.com/MelomanCat/getaround-project/core/registry"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

// TrainResult summarizes a registered training run.
type TrainResult struct {
	Run     registry.Run          `json:"run"`
	Model   registry.ModelVersion `json:"model"`
	Metrics pricing.Metrics       `json:"metrics"`
}

// Trainer fits the pricing model, records the run and registers the
// artifact as a new model version.
type Trainer struct {
	Registry   registry.Registry
	Notifier   coremqtt.Notifier
	Sink       coremetrics.MetricsSink
	Log        logger.Logger
	ModelName  string
	Experiment string
	Options    pricing.Options
}

// Train runs the whole workflow. A failed notification is logged and does
// not fail the run; the API also picks up new versions by polling.
func (t *Trainer) Train(ctx context.Context, rows []model.PricingRecord) (TrainResult, error) {
	if t.Registry == nil {
		return TrainResult{}, errors.New("trainer: registry required")
	}
	log := t.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	opts := t.Options.WithDefaults()
	start := time.Now()

	run, err := t.Registry.CreateRun(ctx, t.Experiment, opts.Params())
	if err != nil {
		return TrainResult{}, fmt.Errorf("create run: %w", err)
	}
	log.Infow("training started", map[string]any{"run_id": run.ID, "rows": len(rows)})

	fail := func(err error) (TrainResult, error) {
		if ferr := t.Registry.FinishRun(ctx, run.ID, registry.StatusFailed); ferr != nil {
			log.Errorf("mark run %s failed: %v", run.ID, ferr)
		}
		coremon.CaptureException(err, map[string]string{"module": "trainer", "run_id": run.ID})
		return TrainResult{}, err
	}

	m, metrics, err := pricing.Train(rows, opts)
	if err != nil {
		return fail(fmt.Errorf("train: %w", err))
	}
	for key, v := range map[string]float64{"mae": metrics.MAE, "rmse": metrics.RMSE, "r2": metrics.R2} {
		if err := t.Registry.LogMetric(ctx, run.ID, key, v); err != nil {
			return fail(fmt.Errorf("log metric %s: %w", key, err))
		}
	}
	artifact, err := m.Marshal()
	if err != nil {
		return fail(fmt.Errorf("marshal model: %w", err))
	}
	if err := t.Registry.LogArtifact(ctx, run.ID, artifact); err != nil {
		return fail(fmt.Errorf("log artifact: %w", err))
	}
	if err := t.Registry.FinishRun(ctx, run.ID, registry.StatusFinished); err != nil {
		return fail(fmt.Errorf("finish run: %w", err))
	}
	mv, err := t.Registry.RegisterModel(ctx, t.ModelName, run.ID)
	if err != nil {
		return TrainResult{}, fmt.Errorf("register model: %w", err)
	}
	finished, err := t.Registry.GetRun(ctx, run.ID)
	if err != nil {
		return TrainResult{}, fmt.Errorf("get run: %w", err)
	}
	log.Infow("model registered", map[string]any{
		"model": mv.Name, "version": mv.Version, "mae": metrics.MAE, "rmse": metrics.RMSE, "r2": metrics.R2,
	})

	if t.Notifier != nil {
		ev := coremqtt.ModelRegistered{Name: mv.Name, Version: mv.Version, RunID: run.ID, Time: mv.CreatedAt}
		if err := t.Notifier.PublishModelRegistered(ctx, ev); err != nil {
			log.Warnf("notify model registered: %v", err)
		}
	}
	if t.Sink != nil {
		ev := coremetrics.TrainingRunEvent{
			RunID:     run.ID,
			ModelName: mv.Name,
			Version:   mv.Version,
			MAE:       metrics.MAE,
			RMSE:      metrics.RMSE,
			R2:        metrics.R2,
			TrainRows: metrics.TrainRows,
			TestRows:  metrics.TestRows,
			Duration:  time.Since(start),
			Time:      time.Now(),
		}
		if err := coremetrics.RecordTrainingRun(t.Sink, ev); err != nil {
			log.Warnf("record training run: %v", err)
		}
	}
	return TrainResult{Run: finished, Model: mv, Metrics: metrics}, nil
}
