package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openbooks-app/openbooks/internal/middleware"
	"github.com/openbooks-app/openbooks/internal/telemetry"
	"github.com/openbooks-app/openbooks/pkg/config"
)

// homeHandler serves the health and telemetry endpoints.
type homeHandler struct {
	cfg      *config.Config
	counters *telemetry.Counters
	dbPool   *pgxpool.Pool // Nil when running on the in-memory store
}

// newHomeHandler creates a new homeHandler.
func newHomeHandler(cfg *config.Config, counters *telemetry.Counters, dbPool *pgxpool.Pool) *homeHandler {
	return &homeHandler{
		cfg:      cfg,
		counters: counters,
		dbPool:   dbPool,
	}
}

// registerHomeRoutes registers the health and metrics routes on the engine
// root, outside the versioned API group.
func registerHomeRoutes(r *gin.Engine, cfg *config.Config, counters *telemetry.Counters, dbPool *pgxpool.Pool) {
	h := newHomeHandler(cfg, counters, dbPool)

	r.GET("/health", h.health)
	r.GET("/metrics", h.metrics)
}

// health godoc
// @Summary Health check
// @Description Reports service liveness; when database checks are enabled, also pings the store
// @Tags home
// @Produce  json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string "Store unreachable"
// @Router /health [get]
func (h *homeHandler) health(c *gin.Context) {
	if h.cfg.EnableDBCheck && h.dbPool != nil {
		if err := h.dbPool.Ping(c.Request.Context()); err != nil {
			middleware.GetLoggerFromCtx(c.Request.Context()).Error("Health check database ping failed", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// metrics godoc
// @Summary Service counters
// @Description Returns the process-lifetime operation counters
// @Tags home
// @Produce  json
// @Success 200 {object} telemetry.Snapshot
// @Router /metrics [get]
func (h *homeHandler) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.counters.Snapshot())
}
