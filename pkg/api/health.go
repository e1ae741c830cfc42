package api

import (
	"context"
	"net/http"
	"time"

	"github.com/bloblite/bloblite/pkg/store/extent"
	"github.com/bloblite/bloblite/pkg/store/metadata"
)

// HealthHandler serves the unauthenticated operational endpoints:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Are both stores answering?
type HealthHandler struct {
	meta      metadata.Store
	extents   extent.Store
	startedAt time.Time
}

// NewHealthHandler creates a new health handler. Either store may be nil, in
// which case readiness reports unhealthy.
func NewHealthHandler(meta metadata.Store, extents extent.Store) *HealthHandler {
	return &HealthHandler{meta: meta, extents: extents, startedAt: time.Now()}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. Designed for Kubernetes
// liveness probes; succeeds as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startedAt)
	JSON(w, http.StatusOK, HealthyResponse(map[string]any{
		"service":    "bloblite",
		"started_at": h.startedAt.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// StoreHealth is the per-store readiness report.
type StoreHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Readiness handles GET /health/ready - readiness probe.
//
// Runs a health check against the metadata and extent stores and returns
// 503 Service Unavailable if either fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.meta == nil || h.extents == nil {
		JSON(w, http.StatusServiceUnavailable, UnhealthyResponse("stores not initialized", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name  string
		check func(context.Context) error
	}{
		{"metadata", h.meta.HealthCheck},
		{"extent", h.extents.HealthCheck},
	}

	var report []StoreHealth
	healthy := true
	for _, c := range checks {
		start := time.Now()
		err := c.check(ctx)

		sh := StoreHealth{Name: c.name, Status: "healthy", Latency: time.Since(start).String()}
		if err != nil {
			sh.Status = "unhealthy"
			sh.Error = err.Error()
			healthy = false
		}
		report = append(report, sh)
	}

	if healthy {
		JSON(w, http.StatusOK, HealthyResponse(report))
		return
	}
	JSON(w, http.StatusServiceUnavailable, UnhealthyResponse("store health check failed", report))
}
