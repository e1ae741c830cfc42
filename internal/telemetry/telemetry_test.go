package telemetry

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "bloblite", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestRequestAttrs(t *testing.T) {
	attrs := RequestAttrs(http.MethodGet, "GetBlob", "devstoreaccount1", "data", "doc.txt")
	require.Len(t, attrs, 5)
	assert.Equal(t, AttrMethod, string(attrs[0].Key))
	assert.Equal(t, "GET", attrs[0].Value.AsString())
	assert.Equal(t, AttrOperation, string(attrs[1].Key))
	assert.Equal(t, "GetBlob", attrs[1].Value.AsString())
	assert.Equal(t, AttrAccount, string(attrs[2].Key))

	// Service-level requests have no container or blob attributes.
	attrs = RequestAttrs(http.MethodGet, "ListContainers", "devstoreaccount1", "", "")
	assert.Len(t, attrs, 3)
}

func TestStartRequestSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartRequestSpan(ctx, http.MethodPut, "PutBlob", "devstoreaccount1", "data", "doc")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	EndRequestSpan(span, http.StatusCreated, "")

	// Error responses carry the wire-level error code.
	_, span = StartRequestSpan(ctx, http.MethodGet, "GetBlob", "devstoreaccount1", "data", "missing")
	require.NotPanics(t, func() {
		EndRequestSpan(span, http.StatusNotFound, "BlobNotFound")
	})
}

func TestSpanNameForOperation(t *testing.T) {
	assert.Equal(t, "blob.GetBlob", SpanNameForOperation("GetBlob"))
}
