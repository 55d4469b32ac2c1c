package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics mirrors the Prometheus metrics as OpenTelemetry instruments,
// exported through the meter provider set up by InitOTel.
type OTelMetrics struct {
	conversions        metric.Int64Counter
	conversionDuration metric.Float64Histogram
	symbols            metric.Int64Counter
	decodeFailures     metric.Int64Counter

	httpRequests        metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	publishOperations metric.Int64Counter
	publishDuration   metric.Float64Histogram
	publishBytes      metric.Int64Histogram
}

// NewOTelMetrics creates instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter(InstrumentationName)

	m := &OTelMetrics{}
	var err error

	m.conversions, err = meter.Int64Counter(
		"symbolgraph.conversions",
		metric.WithDescription("Total number of conversion runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversions counter: %w", err)
	}

	m.conversionDuration, err = meter.Float64Histogram(
		"symbolgraph.conversion.duration",
		metric.WithDescription("Conversion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversion duration histogram: %w", err)
	}

	m.symbols, err = meter.Int64Counter(
		"symbolgraph.symbols",
		metric.WithDescription("Total number of symbols emitted"),
		metric.WithUnit("{symbol}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create symbols counter: %w", err)
	}

	m.decodeFailures, err = meter.Int64Counter(
		"symbolgraph.schema.decode_failures",
		metric.WithDescription("Total number of schemas replaced by placeholders"),
		metric.WithUnit("{schema}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create decode failures counter: %w", err)
	}

	m.httpRequests, err = meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of preview server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("Preview request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	m.publishOperations, err = meter.Int64Counter(
		"storage.operations.total",
		metric.WithDescription("Total number of publish operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publish operations counter: %w", err)
	}

	m.publishDuration, err = meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Publish operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publish duration histogram: %w", err)
	}

	m.publishBytes, err = meter.Int64Histogram(
		"storage.bytes",
		metric.WithDescription("Bytes uploaded per object"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publish bytes histogram: %w", err)
	}

	return m, nil
}

func errorAttr(err error) attribute.KeyValue {
	return attribute.Bool("error", err != nil)
}

// RecordConversion records one conversion run and its symbol counts
func (m *OTelMetrics) RecordConversion(ctx context.Context, module string, duration time.Duration, symbolsByKind map[string]int, decodeFailures int, err error) {
	attrs := metric.WithAttributes(attribute.String("module", module), errorAttr(err))
	m.conversions.Add(ctx, 1, attrs)
	m.conversionDuration.Record(ctx, duration.Seconds(), attrs)

	for kind, n := range symbolsByKind {
		m.symbols.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("module", module),
			attribute.String("symbol.kind", kind),
		))
	}
	if decodeFailures > 0 {
		m.decodeFailures.Add(ctx, int64(decodeFailures), metric.WithAttributes(attribute.String("module", module)))
	}
}

// RecordHTTPRequest records a preview server request
func (m *OTelMetrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordPublish records one object upload
func (m *OTelMetrics) RecordPublish(ctx context.Context, bucket string, duration time.Duration, bytes int64, err error) {
	attrs := metric.WithAttributes(
		attribute.String("storage.operation", "put"),
		attribute.String("storage.bucket", bucket),
		errorAttr(err),
	)
	m.publishOperations.Add(ctx, 1, attrs)
	m.publishDuration.Record(ctx, duration.Seconds(), attrs)
	if bytes > 0 {
		m.publishBytes.Record(ctx, bytes, attrs)
	}
}
