// Package metrics exposes operator-facing Prometheus metrics for the
// recorder, plus a small health endpoint. The collector is optional; all
// callers must tolerate a nil *Collector.
package metrics
