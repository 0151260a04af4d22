// Package metrics defines the events emitted by training runs, prediction
// requests and dashboard computations, and the sinks recording them. Sinks
// like PromSink and InfluxSink live in infra/metrics and register themselves
// in the factory; NewMetricsSink returns a MultiSink automatically when
// several sinks are configured.
package metrics
