/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the wizard frontend

SECURITY NOTE:
  No authentication middleware here. Auth and sessions belong to the
  surrounding SaaS, which fronts this engine.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/claims", func(r chi.Router) {
			r.Post("/", h.CreateClaim)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetClaim)
				r.Put("/input", h.AmendClaim)

				r.Get("/versions", h.GetVersions)
				r.Get("/versions/{version}", h.GetVersion)

				r.Post("/documents", h.AttachDocument)
				r.Patch("/documents/{docID}", h.UpdateDocument)

				r.Post("/calculate", h.Calculate)
				r.Post("/withholding", h.Withholding)
				r.Post("/validate", h.Validate)
				r.Post("/transition", h.Transition)
			})
		})
	})

	return r
}
