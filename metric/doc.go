// Package metric provides Prometheus metrics registration and HTTP
// exposition for StreamKit pipelines.
//
// # Overview
//
// MetricsRegistry wraps a prometheus.Registry with duplicate-registration
// detection keyed by component and metric name. Core pipeline metrics
// (stage status, unit counters, processing duration, failures, pending-slot
// occupancy, backpressure events) are registered automatically; components
// register their own feature metrics on top:
//
//	registry := metric.NewMetricsRegistry()
//	err := registry.RegisterCounter("frame-decoder", "frames_total", counter)
//
// Per-feature metrics structs follow the nil-safe record-method pattern:
// construction returns nil when no registry is provided, and every record
// method checks the receiver, so callers never guard call sites.
//
// # Exposition
//
// Server exposes the registry at /metrics (OpenMetrics enabled) with a
// /health endpoint:
//
//	srv := metric.NewServer(9090, "/metrics", registry)
//	go srv.Start()
//	defer srv.Stop()
package metric
