// Package otel traces runners with OpenTelemetry. Each runner becomes one
// span from its running event to its terminal event, carrying the terminal
// status; scheduler evictions and queue waits are recorded on the span.
package otel
