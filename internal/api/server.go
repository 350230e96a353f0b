// Package api wires the Chi router: middleware stack, public match listings,
// and the authenticated group routes.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/matchweek/matchweek/internal/api/handler"
	"github.com/matchweek/matchweek/internal/auth"
	"github.com/matchweek/matchweek/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Public match listings
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/fixtures", h.GetFixtures)
		r.Get("/results", h.GetResults)

		// Operational trigger; same bearer auth as group routes.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.JWTSecret))
			r.Post("/admin/cycle", h.TriggerCycle)
		})
	})

	// Authenticated group routes
	r.Route("/groups/{groupID}", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))

		r.Route("/predictions", func(r chi.Router) {
			r.Get("/window", h.GetWindow)
			r.Get("/matches", h.GetWindowMatches)
			r.Get("/others", h.GetOthersPredictions)
			r.Get("/stats", h.GetPredictionStats)
			r.Post("/", h.SubmitPredictions)
		})

		r.Get("/leaderboard", h.GetLeaderboard)
	})

	return r
}
