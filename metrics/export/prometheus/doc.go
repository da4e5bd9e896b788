// Package prometheus exposes Manager counters as a prometheus.Collector.
//
// Counters are named gosession_*_total; the single histogram is
// gosession_validate_latency_seconds. [Handler] serves a private registry so callers can
// mount it without touching the global one.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry.
//   - Mutate session state.
package prometheus
