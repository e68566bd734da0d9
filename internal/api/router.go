package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each component check inside /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Database commands
		r.Route("/db", func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/open", s.handleOpen)
			r.Post("/load", s.handleLoad)
			r.Post("/pragma", s.handlePragma)
			r.Post("/select", s.handleSelect)
			r.Post("/execute", s.handleExecute)
			r.Post("/batch", s.handleBatch)
		})
	})

	return r
}

// handleHealth returns the server health status and per-component checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, len(s.components))
	healthy := true

	for name, checker := range s.components {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()

		if err != nil {
			components[name] = err.Error()
			healthy = false
		} else {
			components[name] = "ok"
		}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"status":      status,
		"version":     s.version,
		"connections": len(s.registry.Paths()),
	}
	if len(components) > 0 {
		body["components"] = components
	}

	writeJSON(w, httpStatus, body)
}
