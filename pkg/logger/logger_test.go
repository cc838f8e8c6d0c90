package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("cart-service", "info", &buf)

	l.Info("engine started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cart-service", entry["service"])
	assert.Equal(t, "engine started", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("cart-service", "warn", &buf)

	l.Info("should be filtered")
	assert.Zero(t, buf.Len())

	l.Warn("should appear")
	assert.NotZero(t, buf.Len())
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("cart-service", "verbose", &buf)

	l.Debug("filtered at info")
	assert.Zero(t, buf.Len())

	l.Info("passes at info")
	assert.NotZero(t, buf.Len())
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-123")
	assert.Equal(t, "corr-123", CorrelationIDFromContext(ctx))
}

func TestCorrelationID_Missing(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestFromContext_Fallback(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l)
}

func TestNewContext_StoresLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("cart-service", "info", &buf)

	ctx := NewContext(context.Background(), l)
	got := FromContext(ctx)
	assert.Same(t, l, got)
}

func TestWithContext_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("cart-service", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "corr-999")
	enriched := WithContext(ctx, base)
	enriched.Info("hello", slog.String("k", "v"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-999", entry["correlation_id"])
}

func TestWithContext_NoFieldsWithoutContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("cart-service", "info", &buf)

	enriched := WithContext(context.Background(), base)
	enriched.Info("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, hasCorr := entry["correlation_id"]
	assert.False(t, hasCorr)
	_, hasTrace := entry["trace_id"]
	assert.False(t, hasTrace)
}
