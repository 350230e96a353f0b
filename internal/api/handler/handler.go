// Package handler provides HTTP handlers for all API endpoints. Handlers
// are a thin layer over the gate, scoring engine, and stores; request and
// response bodies are explicit typed structures validated here before any
// core code runs.
package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchweek/matchweek/internal/api/respond"
	"github.com/matchweek/matchweek/internal/cache"
	"github.com/matchweek/matchweek/internal/config"
	"github.com/matchweek/matchweek/internal/cycle"
	"github.com/matchweek/matchweek/internal/group"
	"github.com/matchweek/matchweek/internal/match"
	"github.com/matchweek/matchweek/internal/predict"
	"github.com/matchweek/matchweek/internal/scoring"
	"github.com/matchweek/matchweek/internal/sync"
	"github.com/matchweek/matchweek/internal/window"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool    *pgxpool.Pool
	cache   *cache.Cache
	cfg     *config.Config
	calc    *window.Calculator
	gate    *predict.Gate
	engine  *scoring.Engine
	syncer  *sync.Syncer
	matches *match.Store
	preds   *predict.Store
	groups  *group.Store
	runner  *cycle.Runner
}

// Deps bundles the constructor arguments for New.
type Deps struct {
	Pool    *pgxpool.Pool
	Cache   *cache.Cache
	Cfg     *config.Config
	Calc    *window.Calculator
	Gate    *predict.Gate
	Engine  *scoring.Engine
	Syncer  *sync.Syncer
	Matches *match.Store
	Preds   *predict.Store
	Groups  *group.Store
	Runner  *cycle.Runner
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	return &Handler{
		pool:    d.Pool,
		cache:   d.Cache,
		cfg:     d.Cfg,
		calc:    d.Calc,
		gate:    d.Gate,
		engine:  d.Engine,
		syncer:  d.Syncer,
		matches: d.Matches,
		preds:   d.Preds,
		groups:  d.Groups,
		runner:  d.Runner,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":     "Matchweek API",
		"version":  "1.0.0",
		"status":   "running",
		"timezone": h.calc.Location().String(),
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timezone":  h.calc.Location().String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
