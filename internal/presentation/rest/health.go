package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obesitrack/obesitrack/internal/domain/port"
	pkgpostgres "github.com/obesitrack/obesitrack/pkg/postgres"
)

// HealthHandler provides HTTP health check endpoints for the prediction service.
type HealthHandler struct {
	pool       *pgxpool.Pool
	classifier port.Classifier
	logger     *slog.Logger
	startTime  time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(pool *pgxpool.Pool, classifier port.Classifier, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		pool:       pool,
		classifier: classifier,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Checks  map[string]string `json:"checks"`
	Status  string            `json:"status"`
	Service string            `json:"service"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "obesitrack",
		Uptime:  time.Since(h.startTime).String(),
	})
}

// Readyz handles readiness probe requests. The database must answer a ping;
// the classifier check is informational and never fails readiness, because a
// degraded process still serves history and status endpoints.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ready := true
	checks := map[string]string{
		"database": "ok",
		"model":    "ok",
	}

	if err := pkgpostgres.HealthCheck(ctx, h.pool); err != nil {
		h.logger.ErrorContext(ctx, "readiness database ping failed", slog.String("error", err.Error()))
		checks["database"] = "unreachable"
		ready = false
	}

	if !h.classifier.Ready() {
		checks["model"] = "not loaded"
	}

	resp := ReadinessResponse{
		Status:  "ready",
		Service: "obesitrack",
		Checks:  checks,
	}
	if !ready {
		resp.Status = "not ready"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
