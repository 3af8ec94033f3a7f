// Package metrics exports Prometheus counters for authentication events and
// HTTP traffic. Registry satisfies auth.Metrics and is passed to
// auth.WithMetrics; its Handler is mounted at /metrics.
package metrics
