package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" warn ", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"trace", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.Debug("hidden")
	assert.Zero(t, buf.Len(), "debug must be filtered at info level")

	logger.Info("shown")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "shown", entry["msg"])
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(DebugLevel, &buf)

	base.WithField("module", "Petstore").
		WithFields(map[string]interface{}{"symbols": 3}).
		WithError(assert.AnError).
		Warnf("converted %d", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Petstore", entry["module"])
	assert.Equal(t, float64(3), entry["symbols"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
	assert.Equal(t, "converted 3", entry["msg"])

	// the base logger is not mutated
	buf.Reset()
	base.Info("plain")
	assert.NotContains(t, buf.String(), "Petstore")

	assert.Same(t, base, base.WithError(nil))
}

func TestLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	NewTextLogger(InfoLevel, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestLogger_Logrus(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(WarnLevel, &buf).Logrus()

	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log.Info("hidden")
	assert.Zero(t, buf.Len())
	log.WithField("schema", "Broken").Warn("placeholder")
	assert.Contains(t, buf.String(), `"schema":"Broken"`)

	text := NewTextLogger(DebugLevel, &buf).Logrus()
	assert.IsType(t, &logrus.TextFormatter{}, text.Formatter)
	assert.Equal(t, logrus.DebugLevel, text.GetLevel())
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := context.Background()
	assert.Empty(t, GetRunID(ctx))
	assert.Empty(t, GetRequestID(ctx))
	assert.NotNil(t, GetLogger(ctx))

	ctx = WithLogger(ctx, logger)
	ctx = WithRunID(ctx, "run-1")
	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "run-1", GetRunID(ctx))
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Same(t, logger, GetLogger(ctx))

	FromContext(ctx).Info("tagged")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "req-1", entry["request_id"])
}
