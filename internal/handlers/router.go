package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"readiness-backend/internal/middleware"
)

// HealthChecker reports the database pool state.
type HealthChecker interface {
	Health() map[string]string
}

// RouterConfig carries what the router needs beyond the handlers.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires global middleware, the public health route and the
// authenticated readiness routes.
func NewRouter(cfg RouterConfig, db HealthChecker, h *ReadinessHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Shift Readiness API"))
	})
	r.Get("/api/health", healthHandler(db))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))

		r.Get("/api/compliance/overview-v2", h.ComplianceOverview)
		r.Get("/api/compliance/matrix-v2", h.ComplianceMatrix)
		r.Get("/api/competence/matrix-v2", h.CompetenceMatrix)
		r.Get("/api/setup/readiness", h.SetupReadiness)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))
			r.Post("/api/readiness/snapshots", h.CreateSnapshot)
		})
	})

	return r
}

func healthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			JSON(w, http.StatusOK, map[string]string{"status": "up"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		done := make(chan map[string]string, 1)
		go func() { done <- db.Health() }()

		select {
		case stats := <-done:
			status := http.StatusOK
			if stats["status"] != "up" {
				status = http.StatusServiceUnavailable
			}
			JSON(w, status, stats)
		case <-ctx.Done():
			JSONError(w, http.StatusServiceUnavailable, "Health check timed out")
		}
	}
}
