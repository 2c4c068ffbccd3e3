// Package metric provides Prometheus metrics for the SID settings agent.
//
//   - prometheus.go: metric registry, persistence counters and HTTP handler
//   - collector.go: media and scheduler state collected on scrape
//
// The persistence counters implement registry.Metrics: physical writes,
// writes skipped by the change hash, corrupt copies found at load, failed
// writes and legacy conversions. They show how much wear the settings
// store puts on flash.
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
