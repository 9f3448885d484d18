/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the front end

ROUTE GROUPS:
  /api/calc/*       Stateless calculators
  /api/scenarios/*  Scenario storage and calculation
  /api/demos/*      Demo scenarios
  /api/reset        Store reset (dev only)
  /api/health       Liveness and recalculation counters

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. An empty
// origin list allows any origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Calculator routes
		r.Route("/calc", func(r chi.Router) {
			r.Post("/rental", h.CalcRental)
			r.Post("/sale", h.CalcSale)
			r.Post("/curve", h.CalcCurve)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/", h.SaveScenario)
			r.Get("/{id}", h.GetScenario)
			r.Delete("/{id}", h.DeleteScenario)
			r.Post("/{id}/calculate", h.CalculateScenario)
			r.Post("/{id}/recalculate", h.RecalculateScenario)
			r.Get("/{id}/results", h.GetResults)
			r.Post("/{id}/sensitivity", h.RunSensitivity)
			r.Get("/{id}/export.csv", h.ExportCSV)
		})

		// Demo routes
		r.Route("/demos", func(r chi.Router) {
			r.Get("/", h.ListDemos)
			r.Post("/load", h.LoadDemo)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}

// Health reports liveness and, when enabled, recalculation counters.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.Recalc != nil {
		resp["recalc"] = h.Recalc.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
