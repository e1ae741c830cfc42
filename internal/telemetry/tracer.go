package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for protocol operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// Client attributes
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// Request attributes
	AttrOperation   = "blob.operation"  // Protocol operation name (GetBlob, PutBlock, ...)
	AttrAccount     = "blob.account"    // Storage account
	AttrContainer   = "blob.container"  // Container name
	AttrBlobName    = "blob.name"       // Blob name
	AttrSnapshot    = "blob.snapshot"   // Snapshot timestamp
	AttrBlobType    = "blob.type"       // BlockBlob, PageBlob, AppendBlob
	AttrRequestID   = "blob.request_id" // x-ms-request-id value
	AttrAPIVersion  = "blob.api_version"
	AttrErrorCode   = "blob.error_code" // Wire-level error code
	AttrStatusCode  = "http.status_code"
	AttrMethod      = "http.method"
	AttrContentSize = "http.request_content_length"

	// Auth attributes
	AttrAuthScheme = "auth.scheme" // sharedkey, sharedkeylite, sas, bearer, anonymous

	// Storage backend attributes
	AttrExtentID    = "extent.id"
	AttrExtentCount = "extent.count"
	AttrStoreType   = "store.type" // memory, badger
)

// Span names.
// Format: blob.<operation> for protocol spans, <component>.<operation> for
// internal operations.
const (
	SpanRequest = "blob.request"

	SpanMetadataGet    = "metadata.get"
	SpanMetadataPut    = "metadata.put"
	SpanMetadataList   = "metadata.list"
	SpanMetadataDelete = "metadata.delete"

	SpanExtentWrite  = "extent.write"
	SpanExtentRead   = "extent.read"
	SpanExtentDelete = "extent.delete"

	SpanGCSweep = "gc.sweep"
)

// RequestAttrs builds the standard attribute set for a protocol request span.
func RequestAttrs(method, operation, account, container, blobName string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrMethod, method),
		attribute.String(AttrOperation, operation),
		attribute.String(AttrAccount, account),
	}
	if container != "" {
		attrs = append(attrs, attribute.String(AttrContainer, container))
	}
	if blobName != "" {
		attrs = append(attrs, attribute.String(AttrBlobName, blobName))
	}
	return attrs
}

// StartRequestSpan opens the root span for one protocol request.
func StartRequestSpan(ctx context.Context, method, operation, account, container, blobName string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, SpanRequest,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(RequestAttrs(method, operation, account, container, blobName)...),
	)
}

// EndRequestSpan closes a request span with the response status.
func EndRequestSpan(span trace.Span, statusCode int, errorCode string) {
	span.SetAttributes(attribute.Int(AttrStatusCode, statusCode))
	if errorCode != "" {
		span.SetAttributes(attribute.String(AttrErrorCode, errorCode))
	}
	span.End()
}

// SpanNameForOperation maps a dispatcher operation label to a span name.
func SpanNameForOperation(operation string) string {
	return fmt.Sprintf("blob.%s", operation)
}
