// Package metrics exposes Prometheus counters for the listener.
//
// It tracks handled requests by method and status code, in-flight requests, upload
// outcomes and whether the listener is currently accepting connections. The
// registry is served on /metrics when server.metrics_enabled is set.
package metrics
