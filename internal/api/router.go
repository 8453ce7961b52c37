package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// RouterConfig carries the optional router knobs.
type RouterConfig struct {
	// RateLimit is requests per minute per IP. Zero disables limiting.
	RateLimit int
	// Pingers are probed by /healthz, keyed by the name reported in the body.
	Pingers map[string]Pinger
}

// NewRouter builds and returns the Chi router with all routes configured.
func NewRouter(handlers *Handlers, cfg RouterConfig, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	r.Get("/healthz", HealthHandlerFunc(cfg.Pingers, log))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search_travel", handlers.SearchTravel)
		r.Post("/refine_results", handlers.RefineResults)
		r.Post("/plan_trip", handlers.PlanTrip)
		r.Post("/itinerary", handlers.BuildItinerary)
		r.Post("/save_itinerary", handlers.SaveItinerary)
		r.Get("/itineraries/{id}", handlers.GetItinerary)
		r.Post("/start_booking", handlers.StartBooking)
		r.Get("/get_policy_summary/{offer_id}", handlers.PolicySummary)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
