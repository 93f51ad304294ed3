// Package metrics exports bridge activity as Prometheus metrics.
//
// A [Collector] subscribes to the event bus and keeps counters, gauges and a
// wait-time histogram in its own registry. A [Server] exposes that registry
// over HTTP at /metrics (Prometheus and OpenMetrics text) and /metrics/json
// (prom2json families).
package metrics
