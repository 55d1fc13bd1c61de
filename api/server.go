/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/employees/*       Punches, day records, period reports, schedules
  /api/groups/*          Shift template management
  /api/overrides         Per-employee schedule overrides
  /api/justifications/*  Justification lifecycle
  /api/admin/*           Audited punch edits, justification expiry

SECURITY NOTE:
  No authentication middleware. Identity arrives in the X-Actor-ID header
  and is expected to be attached by an upstream gateway.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Post("/{id}/punches", h.SubmitPunch)
			r.Get("/{id}/punches", h.ListPunches)
			r.Get("/{id}/days/{date}", h.GetDay)
			r.Get("/{id}/report", h.GetReport)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
			r.Get("/{id}", h.GetGroup)
			r.Put("/{id}", h.UpdateGroup)
		})

		r.Post("/overrides", h.CreateOverride)

		r.Route("/justifications", func(r chi.Router) {
			r.Post("/", h.CreateJustification)
			r.Post("/{id}/cancel", h.CancelJustification)
			r.Delete("/{id}", h.DeleteJustification)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Put("/punches", h.EditPunch)
			r.Post("/justifications/expire", h.ExpireJustifications)
		})
	})

	return r
}
