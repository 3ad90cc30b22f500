package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - the admin SPA runs on its own origin during development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/refresh", h.TriggerRefresh)

		r.Route("/delegates", func(r chi.Router) {
			r.Get("/", h.GetDelegates)
			r.Get("/stats", h.GetDelegateStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDelegate)
				r.Get("/notes", h.GetDelegateNotes)
				r.Post("/notes", h.CreateDelegateNote)
				r.Get("/memberships", h.GetDelegateMemberships)
				r.Get("/activities", h.GetDelegateActivities)
				r.Get("/identity-card", h.GetDelegateIdentityCard)
			})
		})
	})

	return r
}
