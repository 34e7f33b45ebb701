package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: route wiring and middleware only; all
// booking semantics live in the app layer.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/rooms", s.handleListRooms)
		r.Get("/rooms/{roomID}/availability", s.handleAvailability)
		r.Post("/bookings", s.handleCreateBooking)
		r.Get("/bookings/{bookingID}", s.handleGetBooking)
		r.Put("/bookings/{bookingID}/cancel", s.handleCancelBooking)
	})

	return r
}
