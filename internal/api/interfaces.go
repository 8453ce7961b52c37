package api

import (
	"context"

	"github.com/neexbeast/tripsearch/internal/offer"
	"github.com/neexbeast/tripsearch/internal/search"
	"github.com/neexbeast/tripsearch/internal/session"
)

// TripSearcher defines the search operations needed by handlers.
type TripSearcher interface {
	Search(ctx context.Context, req search.TripRequest) (offer.SearchResponse, error)
	Refine(ctx context.Context, requestID string, filters offer.RefineFilters) (offer.SearchResponse, error)
	PlanTrip(ctx context.Context, req search.PlanRequest) (search.TripPlan, error)
	BuildItinerary(destination string, pool []string, days int) (offer.Itinerary, []string)
	PolicySummary(ctx context.Context, offerID string) (search.PolicySummary, error)
}

// ItineraryStore defines the saved-itinerary operations needed by handlers.
type ItineraryStore interface {
	Save(requestID, destination string, days offer.Itinerary) session.SavedItinerary
	Get(id string) (session.SavedItinerary, bool)
}

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}
