package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter builds the API routes.
func NewRouter(h *ReservationHandler, auth *Authenticator, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)

	// Public
	r.Get("/health", HealthCheck)
	r.Get("/books/{id}/availability", h.Availability)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Post("/user/books/{id}/reserve", h.Reserve)
		r.Get("/user/dashboard/stats", h.DashboardStats)

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/my-reservations", h.MyReservations)
			r.Post("/{id}/renew", h.Renew)
			r.Post("/{id}/return", h.Return)
			r.Delete("/{id}", h.Cancel)
		})

		r.Route("/librarian", func(r chi.Router) {
			r.Use(RequireRole(RoleLibrarian))
			r.Put("/books/{id}/inventory", h.AdjustInventory)
			r.Put("/books/{id}/maintenance", h.SetMaintenance)
			r.Post("/reservations/{id}/return", h.ReturnAtDesk)
		})
	})

	return r
}
