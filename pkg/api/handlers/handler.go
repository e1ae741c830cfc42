// Package handlers implements the protocol operations: the dispatcher maps
// (method, restype, comp, headers) to one handler per operation, and every
// handler works against the metadata and extent stores.
package handlers

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bloblite/bloblite/internal/logger"
	"github.com/bloblite/bloblite/internal/telemetry"
	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/bloberror"
	"github.com/bloblite/bloblite/pkg/metrics"
	"github.com/bloblite/bloblite/pkg/sign"
	"github.com/bloblite/bloblite/pkg/store/extent"
	"github.com/bloblite/bloblite/pkg/store/metadata"
)

// MaxBodySize caps request bodies. Single-shot uploads beyond this are
// rejected with RequestBodyTooLarge.
const MaxBodySize = 256 * 1024 * 1024

// Handler executes protocol operations against the stores.
type Handler struct {
	meta    metadata.Store
	extents extent.Store
	auth    *sign.Authenticator
	metrics *metrics.Metrics
}

// New creates the protocol handler. metrics may be nil.
func New(meta metadata.Store, extents extent.Store, auth *sign.Authenticator, m *metrics.Metrics) *Handler {
	return &Handler{meta: meta, extents: extents, auth: auth, metrics: m}
}

// ServeHTTP authenticates the request, dispatches it and renders errors in
// the wire format.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := api.NewContext(r)
	start := time.Now()

	spanCtx, span := telemetry.StartRequestSpan(r.Context(), r.Method, "", ctx.Account, ctx.Container, ctx.Blob)
	r = r.WithContext(spanCtx)

	op, err := h.handle(ctx, w, r)
	span.SetName(telemetry.SpanNameForOperation(op))
	span.SetAttributes(attribute.String(telemetry.AttrOperation, op))
	if err != nil {
		se := bloberror.From(err)
		logger.Debug("request failed",
			"operation", op,
			"code", se.Code,
			"path", r.URL.Path,
			"request_id", ctx.RequestID)
		bloberror.Write(w, r, se, ctx.RequestID)
		h.metrics.ObserveRequest(op, se.StatusCode(), time.Since(start), r.ContentLength, 0)
		telemetry.EndRequestSpan(span, se.StatusCode(), string(se.Code))
		return
	}
	h.metrics.ObserveRequest(op, http.StatusOK, time.Since(start), r.ContentLength, 0)
	telemetry.EndRequestSpan(span, http.StatusOK, "")
}

func (h *Handler) handle(ctx *api.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	if ctx.Account == "" {
		return "unknown", bloberror.New(bloberror.InvalidInput)
	}
	if _, err := h.auth.Authenticate(ctx, r); err != nil {
		return "authenticate", err
	}
	return h.dispatch(ctx, w, r)
}
