package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

const (
	requestsPerMinute = 60
	// composing a multi-day trip issues dozens of routing calls
	composeTimeout = 2 * time.Minute
)

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is unauthenticated; everything else requires bearer auth.
// Rate limiting is applied globally per IP.
func NewRouter(handlers *Handlers, token string, checks map[string]Pinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(httprate.LimitByIP(requestsPerMinute, time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc(checks, log))

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(token))
			r.Use(middleware.Timeout(composeTimeout))

			r.Post("/journeys", handlers.PlanJourney)
			r.Get("/activities", handlers.ListActivities)
			r.Get("/cities/best", handlers.BestCity)

			r.Route("/trips", func(r chi.Router) {
				r.Get("/", handlers.ListTrips)
				r.Post("/day", handlers.ComposeDayTrip)
				r.Post("/multiday", handlers.ComposeMultiDayTrip)
				r.Get("/{id}", handlers.GetTrip)
			})
		})
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
