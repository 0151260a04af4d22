package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MelomanCat/getaround-project/api"
	"github.com/MelomanCat/getaround-project/core/dataset"
	"github.com/MelomanCat/getaround-project/core/impact"
	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	"github.com/MelomanCat/getaround-project/core/model"
	"github.com/MelomanCat/getaround-project/infra/cache"
)

type impactSink struct {
	mu     sync.Mutex
	events []coremetrics.ImpactEvent
}

func (s *impactSink) RecordPrediction(coremetrics.PredictionEvent) error { return nil }

func (s *impactSink) RecordImpact(ev coremetrics.ImpactEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func chained(id int64, checkin model.CheckinType, gap, delay float64) model.RentalRecord {
	return model.RentalRecord{
		RentalID:         id,
		CarID:            id,
		CheckinType:      checkin,
		State:            "ended",
		PreviousRentalID: model.Int(id + 100),
		GapMinutes:       model.Float(gap),
		DelayAtCheckout:  model.Float(delay),
	}
}

func snapshot() *dataset.Snapshot {
	rentals := []model.RentalRecord{
		chained(1, model.CheckinConnect, 10, 20),
		chained(2, model.CheckinMobile, 20, 5),
		chained(3, model.CheckinMobile, 50, 70),
		chained(4, model.CheckinConnect, 90, -10),
		{RentalID: 5, CheckinType: model.CheckinMobile, State: "ended", DelayAtCheckout: model.Float(600)},
		{RentalID: 6, CheckinType: model.CheckinMobile, State: "canceled"},
	}
	pricing := []model.PricingRecord{
		{CarFeatures: model.CarFeatures{ModelKey: "BMW", HasGetaroundConnect: true}, RentalPricePerDay: 150},
		{CarFeatures: model.CarFeatures{ModelKey: "Renault"}, RentalPricePerDay: 100},
	}
	return dataset.NewSnapshot(rentals, pricing)
}

func newServer(t *testing.T, opts Options) (*httptest.Server, *Handler) {
	t.Helper()
	if opts.Snapshot == nil {
		opts.Snapshot = snapshot()
	}
	h, err := New(opts)
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Route("/dashboard", h.Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, h
}

func getJSON(t *testing.T, url string, dest any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	return resp.StatusCode
}

func TestNew_RequiresSnapshot(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestNew_MeanPrices(t *testing.T) {
	_, h := newServer(t, Options{})
	assert.Equal(t, impact.Prices{Connect: 150, Manual: 100}, h.Prices())
}

func TestImpact_ComputesAndCaches(t *testing.T) {
	sink := &impactSink{}
	srv, _ := newServer(t, Options{Cache: cache.NewInMemoryCache(), Sink: sink})

	var first impact.Row
	status := getJSON(t, srv.URL+"/dashboard/impact?scope=all&threshold=30", &first)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, impact.ScopeAllVehicles, first.Scope)
	assert.Equal(t, 30, first.Threshold)
	assert.Equal(t, 2, first.ImpactedCount)
	assert.Equal(t, 1, first.SavedCount)
	assert.Equal(t, 250.0, first.RevenueAtRiskAmount)

	var second impact.Row
	getJSON(t, srv.URL+"/dashboard/impact?scope=all&threshold=30", &second)
	assert.Equal(t, first, second)

	require.Len(t, sink.events, 2)
	assert.False(t, sink.events[0].Cached)
	assert.True(t, sink.events[1].Cached)
	assert.Equal(t, "all", sink.events[1].Scope)
	assert.Equal(t, 2, sink.events[1].ImpactedRentals)
}

func TestImpact_DefaultScopeIsAll(t *testing.T) {
	srv, _ := newServer(t, Options{})
	var row impact.Row
	status := getJSON(t, srv.URL+"/dashboard/impact?threshold=60", &row)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, impact.ScopeAllVehicles, row.Scope)
	assert.Equal(t, 3, row.ImpactedCount)
}

func TestImpact_ConnectScope(t *testing.T) {
	srv, _ := newServer(t, Options{})
	var row impact.Row
	status := getJSON(t, srv.URL+"/dashboard/impact?scope=connect&threshold=60", &row)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, row.ImpactedCount)
	assert.Equal(t, 1, row.SavedCount)
	assert.Equal(t, 88.0, row.EfficiencyScore)
}

func TestImpact_InvalidArguments(t *testing.T) {
	srv, _ := newServer(t, Options{})
	cases := map[string]string{
		"missing threshold": "/dashboard/impact?scope=all",
		"bad threshold":     "/dashboard/impact?threshold=abc",
		"zero threshold":    "/dashboard/impact?threshold=0",
		"negative":          "/dashboard/impact?threshold=-30",
		"unknown scope":     "/dashboard/impact?scope=trucks&threshold=30",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			var body api.ErrorBody
			status := getJSON(t, srv.URL+path, &body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "invalid_argument", body.Error.Kind)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestTable_DefaultAndCustomThresholds(t *testing.T) {
	srv, _ := newServer(t, Options{Thresholds: []int{30, 60}})

	var resp TableResponse
	status := getJSON(t, srv.URL+"/dashboard/impact/table", &resp)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Rows, 4)
	assert.Equal(t, impact.ScopeAllVehicles, resp.Rows[0].Scope)
	assert.Equal(t, 30, resp.Rows[0].Threshold)
	assert.Equal(t, impact.ScopeConnectOnly, resp.Rows[3].Scope)
	assert.Equal(t, 60, resp.Rows[3].Threshold)

	status = getJSON(t, srv.URL+"/dashboard/impact/table?thresholds=15,%2045,120", &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, resp.Rows, 6)

	var body api.ErrorBody
	status = getJSON(t, srv.URL+"/dashboard/impact/table?thresholds=15,x", &body)
	assert.Equal(t, http.StatusBadRequest, status)
	status = getJSON(t, srv.URL+"/dashboard/impact/table?thresholds=15,0", &body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDelays(t *testing.T) {
	srv, _ := newServer(t, Options{Cache: cache.NewInMemoryCache()})

	var resp DelaysResponse
	status := getJSON(t, srv.URL+"/dashboard/delays", &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, resp.Statistics.OutliersRemoved)
	assert.Positive(t, resp.Statistics.Count)

	var body api.ErrorBody
	status = getJSON(t, srv.URL+"/dashboard/delays?exclude_outliers=maybe", &body)
	assert.Equal(t, http.StatusBadRequest, status)

	status = getJSON(t, srv.URL+"/dashboard/delays?exclude_outliers=true", &resp)
	assert.Equal(t, http.StatusOK, status)
}

func TestConnect(t *testing.T) {
	srv, _ := newServer(t, Options{})
	var resp ConnectResponse
	status := getJSON(t, srv.URL+"/dashboard/connect", &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, resp.Breakdown.Connect.Cars)
	assert.Equal(t, 1, resp.Breakdown.NonConnect.Cars)
	assert.Equal(t, 150.0, resp.Prices.Connect)
}
