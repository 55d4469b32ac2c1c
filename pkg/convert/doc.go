// Package convert runs a whole conversion: load the OpenAPI document,
// assemble the symbol graph, check it and write the catalog.
//
// Each phase runs in its own OpenTelemetry span and is timed on the
// Prometheus metrics. A run is synchronous; the only concurrency in the
// program is the watch loop driving repeated runs.
package convert
