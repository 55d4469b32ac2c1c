package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passCheck(context.Context) error { return nil }
func failCheck(context.Context) error { return errors.New("down") }

func TestHealthChecker_Check(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(h *HealthChecker)
		status string
	}{
		{"no checks", func(h *HealthChecker) {}, StatusHealthy},
		{"all passing", func(h *HealthChecker) {
			h.Register("catalog", true, passCheck)
			h.Register("spec", false, passCheck)
		}, StatusHealthy},
		{"optional failing", func(h *HealthChecker) {
			h.Register("catalog", true, passCheck)
			h.Register("spec", false, failCheck)
		}, StatusDegraded},
		{"critical failing", func(h *HealthChecker) {
			h.Register("catalog", true, failCheck)
			h.Register("spec", false, failCheck)
		}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker("v1")
			tt.setup(h)
			status := h.Check(context.Background())
			assert.Equal(t, tt.status, status.Status)
			assert.Equal(t, "v1", status.Version)
		})
	}
}

func TestHealthChecker_DependencyMessage(t *testing.T) {
	h := NewHealthChecker("")
	h.Register("catalog", true, failCheck)

	dep := h.Check(context.Background()).Dependencies["catalog"]
	assert.Equal(t, StatusUnhealthy, dep.Status)
	assert.Equal(t, "down", dep.Message)
}

func TestHealthChecker_Handlers(t *testing.T) {
	h := NewHealthChecker("v1")
	h.Register("catalog", true, failCheck)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusUnhealthy, body.Status)
	assert.Contains(t, body.Dependencies, "catalog")
}

func TestDirectoryAndFileChecks(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(file, []byte("openapi: 3.0.0"), 0o644))
	ctx := context.Background()

	assert.NoError(t, DirectoryCheck(dir)(ctx))
	assert.ErrorContains(t, DirectoryCheck(file)(ctx), "not a directory")
	assert.Error(t, DirectoryCheck(filepath.Join(dir, "missing"))(ctx))

	assert.NoError(t, FileCheck(file)(ctx))
	assert.Error(t, FileCheck(filepath.Join(dir, "missing.yaml"))(ctx))
}
