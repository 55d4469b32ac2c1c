package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Run("nil registry creates a private one", func(t *testing.T) {
		a := NewMetrics(nil)
		b := NewMetrics(nil)
		assert.NotSame(t, a.Registry(), b.Registry())
	})

	t.Run("uses the given registry", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		m := NewMetrics(registry)
		assert.Same(t, registry, m.Registry())
	})
}

func TestMetrics_RecordConversion(t *testing.T) {
	m := NewMetrics(nil)

	m.RecordConversion(nil, 10*time.Millisecond)
	m.RecordConversion(nil, 20*time.Millisecond)
	m.RecordConversion(errors.New("boom"), time.Millisecond)
	m.ObservePhase("parse", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ConversionDuration))
}

func TestMetrics_RecordPublish(t *testing.T) {
	m := NewMetrics(nil)

	m.RecordPublish(nil, 100)
	m.RecordPublish(nil, 50)
	m.RecordPublish(errors.New("denied"), 999)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublishedObjectsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishedObjectsTotal.WithLabelValues("error")))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.PublishedBytesTotal))
}

func TestMetrics_PreviewAndCache(t *testing.T) {
	m := NewMetrics(nil)

	m.RecordPreviewRequest("GET", "/endpoints/{name}", 200, time.Millisecond)
	m.RecordPreviewRequest("GET", "/endpoints/{name}", 404, time.Millisecond)
	m.RecordCacheHit("pages")
	m.RecordCacheHit("pages")
	m.RecordCacheMiss("pages")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PreviewRequestsTotal.WithLabelValues("GET", "/endpoints/{name}", "404")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("pages")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("pages")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(nil)
	m.SymbolsTotal.WithLabelValues("endpoint").Add(4)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `symbolgraph_symbols_total{kind="endpoint"} 4`)
}

func TestMetrics_WriteToTextfile(t *testing.T) {
	m := NewMetrics(nil)
	m.RelationshipsTotal.Add(7)

	path := filepath.Join(t.TempDir(), "symbolgraph.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "symbolgraph_relationships_total 7")
}
