// Package infra contains the technical adapters: dataset readers, the
// SQLite registry, caches, the audit log, metrics exporters, Sentry and
// MQTT. These packages should depend only on the interfaces defined in
// the core packages.
package infra
