package preview

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/symbolgraph/pkg/observability"
)

const rootPage = `# Shop

**Version:** ` + "`1.0`" + `

## Endpoints

- [` + "`GET /pets`" + `](Endpoints/listPets.md): List pets

## Schemas

- [Pet](Schemas/Pet.md): A pet
`

const endpointPage = `# listPets

` + "`GET /pets`" + `

| Name | Type |
| --- | --- |
| ` + "`limit`" + ` | [` + "`Int32`" + `](../Schemas/Pet.md) |

---

[Back to Shop](../Shop.md)
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Shop.catalog")
	files := map[string]string{
		"Shop.md":               rootPage,
		"shop.symbols.json":     `{"module":{"name":"Shop"}}`,
		"Endpoints/listPets.md": endpointPage,
		"Schemas/Pet.md":        "# Pet\n\nA pet\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newTestServer(t *testing.T, dir string) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(dir, observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{}),
		WithCache(16, time.Minute),
		WithVersion("test"),
	)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestModuleFromDir(t *testing.T) {
	tests := []struct {
		dir     string
		want    string
		wantErr bool
	}{
		{"out/Shop.catalog", "Shop", false},
		{"out/Shop.catalog/", "Shop", false},
		{"Shop.catalog", "Shop", false},
		{"out/Shop", "", true},
		{".catalog", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			got, err := ModuleFromDir(tt.dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServer_Pages(t *testing.T) {
	_, ts := newTestServer(t, writeCatalog(t))

	tests := []struct {
		name        string
		path        string
		status      int
		contentType string
		contains    []string
	}{
		{
			name:        "root as html",
			path:        "/",
			status:      http.StatusOK,
			contentType: contentTypeHTML,
			contains:    []string{"<title>Shop - Shop</title>", `href="/endpoints/listPets"`, `href="/schemas/Pet"`},
		},
		{
			name:        "root as markdown",
			path:        "/markdown",
			status:      http.StatusOK,
			contentType: contentTypeMarkdown,
			contains:    []string{"](Endpoints/listPets.md)"},
		},
		{
			name:        "endpoint page",
			path:        "/endpoints/listPets",
			status:      http.StatusOK,
			contentType: contentTypeHTML,
			contains:    []string{"<table>", `href="/schemas/Pet"`, `href="/"`},
		},
		{
			name:        "schema markdown",
			path:        "/schemas/Pet/markdown",
			status:      http.StatusOK,
			contentType: contentTypeMarkdown,
			contains:    []string{"# Pet"},
		},
		{
			name:        "symbols",
			path:        "/symbols.json",
			status:      http.StatusOK,
			contentType: contentTypeJSON,
			contains:    []string{`"Shop"`},
		},
		{
			name:   "missing page",
			path:   "/schemas/Nope",
			status: http.StatusNotFound,
		},
		{
			name:   "dot segments rejected",
			path:   "/endpoints/a..b",
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown route",
			path:   "/nothing/here/at/all",
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			}
			for _, want := range tt.contains {
				assert.Contains(t, body, want)
			}
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestServer_CacheAndInvalidate(t *testing.T) {
	dir := writeCatalog(t)
	s, ts := newTestServer(t, dir)

	_, first := get(t, ts.URL+"/schemas/Pet")
	assert.Contains(t, first, "A pet")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Schemas", "Pet.md"), []byte("# Pet\n\nA dog\n"), 0o644))

	_, cached := get(t, ts.URL+"/schemas/Pet")
	assert.Equal(t, first, cached, "served from cache until invalidated")

	s.Invalidate()
	_, fresh := get(t, ts.URL+"/schemas/Pet")
	assert.Contains(t, fresh, "A dog")

	stats := s.Cache().Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)

	_, body := get(t, ts.URL+"/cache")
	var decoded CacheStats
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, int64(1), decoded.Hits)
}

func TestServer_Metrics(t *testing.T) {
	dir := writeCatalog(t)
	metrics := observability.NewMetrics(nil)
	s, err := NewServer(dir, observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{}), WithMetrics(metrics))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	get(t, ts.URL+"/endpoints/listPets")
	get(t, ts.URL+"/endpoints/listPets")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PreviewRequestsTotal.WithLabelValues("GET", "/endpoints/{name}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("pages")))

	_, body := get(t, ts.URL+"/metrics")
	assert.Contains(t, body, "symbolgraph_preview_requests_total")
}

func TestServer_Health(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Later.catalog")
	_, ts := newTestServer(t, dir)

	resp, _ := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "catalog not generated yet")

	require.NoError(t, os.MkdirAll(dir, 0o755))
	resp, body := get(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, observability.StatusDegraded, "symbols file still missing")
}

func TestNewServer_RejectsNonCatalogDir(t *testing.T) {
	_, err := NewServer(t.TempDir(), nil)
	assert.ErrorContains(t, err, "not a catalog directory")
}
