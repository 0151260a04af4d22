package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	"github.com/MelomanCat/getaround-project/core/model"
	coremon "github.com/MelomanCat/getaround-project/core/monitoring"
	coremqtt "github.com/MelomanCat/getaround-project/core/mqtt"
	"github.com/MelomanCat/getaround-project/core/pricing"
	"github.com/MelomanCat/getaround-project/core/registry"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

// Reload sources reported in ModelReloadEvent.
const (
	SourceStartup      = "startup"
	SourcePoll         = "poll"
	SourceNotification = "notification"
)

const notificationReloadTimeout = 30 * time.Second

type servedModel struct {
	model   *pricing.Model
	version int
}

// ModelHolder serves the latest registered version of a named model and
// swaps it atomically on reload.
type ModelHolder struct {
	name string
	reg  registry.Registry
	sink coremetrics.MetricsSink
	log  logger.Logger

	reloadMu sync.Mutex
	current  atomic.Pointer[servedModel]
}

var _ pricing.Predictor = (*ModelHolder)(nil)

// NewModelHolder returns an empty holder; call Reload to load a model.
func NewModelHolder(name string, reg registry.Registry, sink coremetrics.MetricsSink, log logger.Logger) *ModelHolder {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &ModelHolder{name: name, reg: reg, sink: sink, log: log}
}

// Predict delegates to the current model.
func (h *ModelHolder) Predict(ctx context.Context, items []model.CarFeatures) ([]float64, error) {
	cur := h.current.Load()
	if cur == nil {
		return nil, pricing.Unavailable(pricing.ErrNoModel)
	}
	return cur.model.Predict(ctx, items)
}

// Version returns the served registry version, 0 when nothing is loaded.
func (h *ModelHolder) Version() int {
	if cur := h.current.Load(); cur != nil {
		return cur.version
	}
	return 0
}

// Loaded reports whether a model is being served.
func (h *ModelHolder) Loaded() bool { return h.current.Load() != nil }

// Reload loads the latest registered version when it differs from the
// served one. It reports whether a new model was swapped in.
func (h *ModelHolder) Reload(ctx context.Context, source string) (bool, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	latest, err := h.reg.Latest(ctx, h.name)
	if err != nil {
		return false, fmt.Errorf("latest %s: %w", h.name, err)
	}
	if latest.Version == h.Version() {
		return false, nil
	}
	mv, data, err := h.reg.LoadModel(ctx, h.name, latest.Version)
	if err != nil {
		return false, fmt.Errorf("load %s v%d: %w", h.name, latest.Version, err)
	}
	m, err := pricing.Decode(data)
	if err != nil {
		return false, fmt.Errorf("decode %s v%d: %w", h.name, mv.Version, err)
	}
	h.current.Store(&servedModel{model: m, version: mv.Version})
	h.log.Infow("model loaded", map[string]any{"model": h.name, "version": mv.Version, "source": source})

	ev := coremetrics.ModelReloadEvent{ModelName: h.name, Version: mv.Version, Source: source, Time: time.Now()}
	if err := coremetrics.RecordModelReload(h.sink, ev); err != nil {
		h.log.Warnf("record model reload: %v", err)
	}
	return true, nil
}

// Poll reloads on every tick until ctx is canceled.
func (h *ModelHolder) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.Reload(ctx, SourcePoll); err != nil && !errors.Is(err, registry.ErrNotFound) {
				h.log.Errorf("poll reload: %v", err)
			}
		}
	}
}

// HandleNotification reloads when a new version of the served model is
// announced. Notifications run on the MQTT client goroutine, so the reload
// happens in the background.
func (h *ModelHolder) HandleNotification(ev coremqtt.ModelRegistered) {
	if ev.Name != h.name || ev.Version <= h.Version() {
		return
	}
	go coremon.Guard(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationReloadTimeout)
		defer cancel()
		if _, err := h.Reload(ctx, SourceNotification); err != nil {
			h.log.Errorf("reload after notification v%d: %v", ev.Version, err)
			coremon.CaptureException(err, map[string]string{"module": "model_holder", "model": h.name})
		}
	})
}
