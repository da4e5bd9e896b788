// Package otel publishes Manager counters as OpenTelemetry observable instruments.
//
// One Int64ObservableCounter is registered per counter and one Int64ObservableGauge per
// histogram bucket. A single callback reads [goSession.Manager.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate session state.
package otel
