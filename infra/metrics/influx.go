package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/MelomanCat/getaround-project/core/metrics"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

// InfluxSink writes pricing service events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPrediction writes one point per prediction request.
func (s *InfluxSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	p := write.NewPointWithMeasurement("prediction_request").
		AddTag("outcome", ev.Outcome).
		AddTag("model_version", strconv.Itoa(ev.ModelVersion)).
		AddField("items", ev.Items).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordTrainingRun writes the test metrics of a training run.
func (s *InfluxSink) RecordTrainingRun(ev coremetrics.TrainingRunEvent) error {
	p := write.NewPointWithMeasurement("training_run").
		AddTag("model", ev.ModelName).
		AddTag("run_id", ev.RunID).
		AddField("version", ev.Version).
		AddField("mae", round3(ev.MAE)).
		AddField("rmse", round3(ev.RMSE)).
		AddField("r2", round3(ev.R2)).
		AddField("train_rows", ev.TrainRows).
		AddField("test_rows", ev.TestRows).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordImpact writes one threshold computation.
func (s *InfluxSink) RecordImpact(ev coremetrics.ImpactEvent) error {
	p := write.NewPointWithMeasurement("threshold_impact").
		AddTag("scope", ev.Scope).
		AddTag("cached", strconv.FormatBool(ev.Cached)).
		AddField("threshold", ev.Threshold).
		AddField("impacted_rentals", ev.ImpactedRentals).
		AddField("saved_rentals", ev.SavedRentals).
		AddField("impacted_revenue", round3(ev.ImpactedRevenue)).
		AddField("threshold_efficiency", round3(ev.ThresholdEfficiency)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordModelReload writes a model swap.
func (s *InfluxSink) RecordModelReload(ev coremetrics.ModelReloadEvent) error {
	p := write.NewPointWithMeasurement("model_reload").
		AddTag("model", ev.ModelName).
		AddTag("source", ev.Source).
		AddField("version", ev.Version).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
