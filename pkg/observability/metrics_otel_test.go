package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMeterProvider installs a meter provider backed by a manual reader
func setupTestMeterProvider(t *testing.T) *metric.ManualReader {
	t.Helper()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})
	return reader
}

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumTotal(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestOTelMetrics_RecordConversion(t *testing.T) {
	reader := setupTestMeterProvider(t)
	m, err := NewOTelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordConversion(ctx, "Petstore", 5*time.Millisecond, map[string]int{"endpoint": 2, "schema": 3}, 1, nil)
	m.RecordConversion(ctx, "Petstore", time.Millisecond, nil, 0, errors.New("parse"))

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumTotal(t, got["symbolgraph.conversions"]))
	assert.Equal(t, int64(5), sumTotal(t, got["symbolgraph.symbols"]))
	assert.Equal(t, int64(1), sumTotal(t, got["symbolgraph.schema.decode_failures"]))
	assert.Contains(t, got, "symbolgraph.conversion.duration")
}

func TestOTelMetrics_RecordHTTPAndPublish(t *testing.T) {
	reader := setupTestMeterProvider(t)
	m, err := NewOTelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	m.RecordPublish(ctx, "docs", time.Millisecond, 128, nil)
	m.RecordPublish(ctx, "docs", time.Millisecond, 0, errors.New("denied"))

	got := collect(t, reader)
	assert.Equal(t, int64(1), sumTotal(t, got["http.server.requests"]))
	assert.Equal(t, int64(2), sumTotal(t, got["storage.operations.total"]))

	hist, ok := got["storage.bytes"].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}
