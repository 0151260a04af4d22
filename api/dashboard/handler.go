// Package dashboard serves the delay and threshold analytics over the
// loaded datasets.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MelomanCat/getaround-project/api"
	"github.com/MelomanCat/getaround-project/core/analytics"
	"github.com/MelomanCat/getaround-project/core/dataset"
	"github.com/MelomanCat/getaround-project/core/impact"
	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	"github.com/MelomanCat/getaround-project/infra/cache"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

// DelaysResponse is returned by GET /dashboard/delays.
type DelaysResponse struct {
	Summary    analytics.DelaySummary `json:"summary"`
	Statistics analytics.DelayStats   `json:"statistics"`
}

// ConnectResponse is returned by GET /dashboard/connect.
type ConnectResponse struct {
	Breakdown analytics.ConnectBreakdown `json:"breakdown"`
	Prices    impact.Prices              `json:"mean_prices"`
}

// TableResponse is returned by GET /dashboard/impact/table.
type TableResponse struct {
	Prices impact.Prices `json:"prices"`
	Rows   []impact.Row  `json:"rows"`
}

// Options configures the handler. Snapshot is required.
type Options struct {
	Snapshot   *dataset.Snapshot
	Thresholds []int
	Cache      cache.Cache
	TTL        time.Duration
	Sink       coremetrics.MetricsSink
	Log        logger.Logger
}

// Handler serves the /dashboard routes.
type Handler struct {
	opts   Options
	prices impact.Prices
	// keys are scoped to the snapshot so a reload never serves stale entries
	keyPrefix string
}

// New precomputes the mean prices of the snapshot.
func New(opts Options) (*Handler, error) {
	if opts.Snapshot == nil {
		return nil, errors.New("dashboard: snapshot required")
	}
	if len(opts.Thresholds) == 0 {
		opts.Thresholds = impact.DefaultThresholds
	}
	if opts.Cache == nil {
		opts.Cache = cache.NopCache{}
	}
	if opts.Sink == nil {
		opts.Sink = coremetrics.NopSink{}
	}
	if opts.Log == nil {
		opts.Log = logger.NopLogger{}
	}
	prices := analytics.MeanPrices(opts.Snapshot.Pricing)
	if err := prices.Validate(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return &Handler{
		opts:      opts,
		prices:    prices,
		keyPrefix: fmt.Sprintf("dashboard:%d:", opts.Snapshot.LoadedAt.UnixNano()),
	}, nil
}

// Prices returns the per-category revenue proxies.
func (h *Handler) Prices() impact.Prices { return h.prices }

// Routes mounts the dashboard endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/impact", h.impact)
	r.Get("/impact/table", h.table)
	r.Get("/delays", h.delays)
	r.Get("/connect", h.connect)
}

func invalid(w http.ResponseWriter, err error) {
	api.Error(w, http.StatusBadRequest, "invalid_argument", err.Error())
}

func (h *Handler) impact(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scopeParam := q.Get("scope")
	if scopeParam == "" {
		scopeParam = impact.ScopeAllVehicles.String()
	}
	scope, err := impact.ParseScope(scopeParam)
	if err != nil {
		invalid(w, err)
		return
	}
	threshold, err := strconv.Atoi(q.Get("threshold"))
	if err != nil {
		invalid(w, fmt.Errorf("%w: threshold must be an integer, got %q", impact.ErrInvalidArgument, q.Get("threshold")))
		return
	}

	key := fmt.Sprintf("%simpact:%s:%d", h.keyPrefix, scope, threshold)
	var row impact.Row
	cached := h.lookup(r.Context(), key, &row)
	if !cached {
		res, err := impact.Compute(h.opts.Snapshot.Chained(), h.prices, scope, threshold)
		if err != nil {
			h.computeError(w, err)
			return
		}
		row = impact.Row{Scope: scope, Threshold: threshold, Result: res}
		h.store(r.Context(), key, row)
	}

	ev := coremetrics.ImpactEvent{
		Scope:               scope.String(),
		Threshold:           threshold,
		ImpactedRentals:     row.ImpactedCount,
		SavedRentals:        row.SavedCount,
		ImpactedRevenue:     row.RevenueAtRiskAmount,
		ThresholdEfficiency: row.EfficiencyScore,
		Cached:              cached,
		Time:                time.Now(),
	}
	if err := coremetrics.RecordImpact(h.opts.Sink, ev); err != nil {
		h.opts.Log.Warnf("record impact metrics: %v", err)
	}
	api.JSON(w, http.StatusOK, row)
}

func (h *Handler) table(w http.ResponseWriter, r *http.Request) {
	thresholds := h.opts.Thresholds
	if raw := r.URL.Query().Get("thresholds"); raw != "" {
		parsed, err := parseThresholds(raw)
		if err != nil {
			invalid(w, err)
			return
		}
		thresholds = parsed
	}
	parts := make([]string, len(thresholds))
	for i, t := range thresholds {
		parts[i] = strconv.Itoa(t)
	}
	key := h.keyPrefix + "table:" + strings.Join(parts, ",")

	var resp TableResponse
	if !h.lookup(r.Context(), key, &resp) {
		rows, err := impact.Table(h.opts.Snapshot.Chained(), h.prices, thresholds)
		if err != nil {
			h.computeError(w, err)
			return
		}
		resp = TableResponse{Prices: h.prices, Rows: rows}
		h.store(r.Context(), key, resp)
	}
	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) delays(w http.ResponseWriter, r *http.Request) {
	exclude := false
	if raw := r.URL.Query().Get("exclude_outliers"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalid(w, fmt.Errorf("exclude_outliers must be a boolean, got %q", raw))
			return
		}
		exclude = v
	}
	key := fmt.Sprintf("%sdelays:%t", h.keyPrefix, exclude)
	var resp DelaysResponse
	if !h.lookup(r.Context(), key, &resp) {
		resp = DelaysResponse{
			Summary:    analytics.SummarizeDelays(h.opts.Snapshot.Rentals),
			Statistics: analytics.DelayStatistics(h.opts.Snapshot.Rentals, exclude),
		}
		h.store(r.Context(), key, resp)
	}
	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) connect(w http.ResponseWriter, _ *http.Request) {
	api.JSON(w, http.StatusOK, ConnectResponse{
		Breakdown: analytics.BreakdownByConnect(h.opts.Snapshot.Pricing),
		Prices:    h.prices,
	})
}

func (h *Handler) computeError(w http.ResponseWriter, err error) {
	if errors.Is(err, impact.ErrInvalidArgument) {
		invalid(w, err)
		return
	}
	h.opts.Log.Errorf("impact computation: %v", err)
	api.Error(w, http.StatusInternalServerError, "internal", err.Error())
}

func (h *Handler) lookup(ctx context.Context, key string, dest any) bool {
	err := cache.GetJSON(ctx, h.opts.Cache, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrNotFound) {
		h.opts.Log.Warnf("cache get %s: %v", key, err)
	}
	return false
}

func (h *Handler) store(ctx context.Context, key string, v any) {
	if err := cache.SetJSON(ctx, h.opts.Cache, key, v, h.opts.TTL); err != nil {
		h.opts.Log.Warnf("cache set %s: %v", key, err)
	}
}

func parseThresholds(raw string) ([]int, error) {
	fields := strings.Split(raw, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: threshold %q is not an integer", impact.ErrInvalidArgument, f)
		}
		out = append(out, v)
	}
	return out, nil
}
