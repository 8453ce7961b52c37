package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/tripsearch/internal/itinerary"
	"github.com/neexbeast/tripsearch/internal/location"
	"github.com/neexbeast/tripsearch/internal/offer"
	"github.com/neexbeast/tripsearch/internal/provider"
	"github.com/neexbeast/tripsearch/internal/session"
)

// Warnings surfaced to callers. UnknownRequestWarning is matched verbatim by clients.
const (
	UnknownRequestWarning = "Unknown request_id. Run search first."
	NoFlightsWarning      = "No live flight offers were returned for this query."
	NoHotelsWarning       = "No live hotel offers were returned for this query."
	NoActivitiesWarning   = "No live activities were returned for this query."
)

// FallbackCodeWarning names the destination and the table code used for it.
func FallbackCodeWarning(name, code string) string {
	return fmt.Sprintf("Resolved destination '%s' using fallback IATA '%s'.", name, code)
}

// UnresolvedWarning names a destination no lookup could turn into a code.
func UnresolvedWarning(name string) string {
	return fmt.Sprintf("Could not resolve destination IATA for '%s'. Set destination.iata explicitly for better provider matches.", name)
}

// Gateway is the provider fetch surface consumed by Service.
type Gateway interface {
	SearchFlights(ctx context.Context, origin, destination, date string) ([]provider.RawFlight, error)
	SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) ([]provider.RawHotel, error)
	SearchActivities(ctx context.Context, lat, lng float64) ([]provider.RawActivity, error)
}

// Resolver turns free text into a destination.
type Resolver interface {
	Resolve(ctx context.Context, keyword string) (location.Location, bool)
}

// Store keeps responses for later refinement.
type Store interface {
	Save(ctx context.Context, resp offer.SearchResponse) error
	Get(ctx context.Context, requestID string) (offer.SearchResponse, bool, error)
	Update(ctx context.Context, requestID string, fn session.UpdateFunc) (offer.SearchResponse, bool, error)
}

// Service coordinates resolve → fetch → normalize → score → store.
type Service struct {
	resolver      Resolver
	gateway       Gateway
	store         Store
	builder       *itinerary.Builder
	defaultOrigin string
	log           *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires a Service. defaultOrigin is used when a request carries no origin code.
func NewService(resolver Resolver, gateway Gateway, store Store, builder *itinerary.Builder, defaultOrigin string, log *slog.Logger) *Service {
	return &Service{
		resolver:      resolver,
		gateway:       gateway,
		store:         store,
		builder:       builder,
		defaultOrigin: strings.ToUpper(defaultOrigin),
		log:           log,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// target is a destination ready for provider calls.
type target struct {
	code string
	lat  *float64
	lng  *float64
}

func (t target) hasCoordinates() bool {
	return t.lat != nil && t.lng != nil
}

// resolveDestination never calls providers; it returns false only when no code exists.
func (s *Service) resolveDestination(ctx context.Context, dest Destination, name string) (target, []string, bool) {
	t := target{lat: dest.Lat, lng: dest.Lng}

	if code := strings.TrimSpace(dest.Code); code != "" {
		t.code = strings.ToUpper(code)
		if !t.hasCoordinates() {
			if loc, ok := s.resolver.Resolve(ctx, name); ok && loc.HasCoordinates() {
				t.lat, t.lng = loc.Lat, loc.Lng
			}
		}
		return t, nil, true
	}

	loc, ok := s.resolver.Resolve(ctx, name)
	if !ok || loc.Code == "" {
		return target{}, []string{UnresolvedWarning(name)}, false
	}

	var warnings []string
	if loc.Source == location.SourceFallback {
		warnings = append(warnings, FallbackCodeWarning(name, loc.Code))
	}
	t.code = loc.Code
	if !t.hasCoordinates() {
		t.lat, t.lng = loc.Lat, loc.Lng
	}
	return t, warnings, true
}

// fetched holds the outcome of each provider call.
type fetched struct {
	flights       []provider.RawFlight
	flightsErr    error
	hotels        []provider.RawHotel
	hotelsErr     error
	activities    []provider.RawActivity
	activitiesErr error
}

// fetchAll issues the three provider calls concurrently. No call can fail the group:
// errors and panics are recorded per provider.
func (s *Service) fetchAll(ctx context.Context, log *slog.Logger, origin string, t target, req TripRequest) fetched {
	var (
		g   errgroup.Group
		out fetched
	)

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				log.Error("flight fetch panicked", "recover", r)
				out.flightsErr = &provider.Error{Op: provider.OpFlights, Kind: provider.KindUnavailable, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		out.flights, out.flightsErr = s.gateway.SearchFlights(ctx, origin, t.code, req.Dates.StartDate)
		return nil
	})

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				log.Error("hotel fetch panicked", "recover", r)
				out.hotelsErr = &provider.Error{Op: provider.OpHotels, Kind: provider.KindUnavailable, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		out.hotels, out.hotelsErr = s.gateway.SearchHotels(ctx, t.code, req.Dates.StartDate, req.Dates.EndDate, req.Travelers.Adults)
		return nil
	})

	if t.hasCoordinates() {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error("activity fetch panicked", "recover", r)
					out.activitiesErr = &provider.Error{Op: provider.OpActivities, Kind: provider.KindUnavailable, Err: fmt.Errorf("panic: %v", r)}
				}
			}()
			out.activities, out.activitiesErr = s.gateway.SearchActivities(ctx, *t.lat, *t.lng)
			return nil
		})
	} else {
		log.Info("activity fetch skipped: no coordinates", "code", t.code)
	}

	_ = g.Wait()
	return out
}

// Search aggregates offers for req and stores the response under a fresh request id.
// Provider failures become warnings; only an invalid req returns an error.
func (s *Service) Search(ctx context.Context, req TripRequest) (offer.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return offer.SearchResponse{}, err
	}

	requestID := s.newID()
	name := req.DestinationName()
	log := s.log.With("request_id", requestID, "destination", name)

	t, warnings, ok := s.resolveDestination(ctx, req.Destination, name)
	if !ok {
		resp := offer.Empty(requestID, s.timestamp(), warnings...)
		log.Info("search finished without destination code", "warnings", warnings)
		s.save(ctx, log, resp)
		return resp, nil
	}

	origin := strings.ToUpper(strings.TrimSpace(req.Origin.Code))
	if origin == "" {
		origin = s.defaultOrigin
	}

	out := s.fetchAll(ctx, log, origin, t, req)
	for _, err := range []error{out.flightsErr, out.hotelsErr, out.activitiesErr} {
		if err != nil {
			log.Warn("provider returned no data", "kind", provider.KindOf(err), "err", err)
		}
	}

	flights := offer.NormalizeFlights(out.flights, offer.FlightContext{
		RequestID:   requestID,
		Origin:      origin,
		Destination: t.code,
		Date:        req.Dates.StartDate,
	})
	hotels := offer.NormalizeHotels(out.hotels, requestID, name)
	activities := offer.NormalizeActivities(out.activities, requestID, name)

	offer.ScoreFlights(flights)
	offer.ScoreHotels(hotels)
	offer.ScoreActivities(activities)

	if len(flights) == 0 {
		warnings = append(warnings, NoFlightsWarning)
	}
	if len(hotels) == 0 {
		warnings = append(warnings, NoHotelsWarning)
	}
	if len(activities) == 0 {
		warnings = append(warnings, NoActivitiesWarning)
	}
	if warnings == nil {
		warnings = []string{}
	}

	resp := offer.SearchResponse{
		RequestID:   requestID,
		FreshnessTS: s.timestamp(),
		Flights:     flights,
		Hotels:      hotels,
		Activities:  activities,
		Warnings:    warnings,
	}

	log.Info("search finished",
		"code", t.code,
		"flights", len(flights),
		"hotels", len(hotels),
		"activities", len(activities),
		"warnings", warnings,
	)
	s.save(ctx, log, resp)
	return resp, nil
}

func (s *Service) save(ctx context.Context, log *slog.Logger, resp offer.SearchResponse) {
	if err := s.store.Save(ctx, resp); err != nil {
		log.Error("storing search response failed", "err", err)
	}
}

// Refine narrows the stored response for requestID and stores the result in its place.
// It never contacts providers. An unknown id yields an empty response with
// UnknownRequestWarning.
func (s *Service) Refine(ctx context.Context, requestID string, filters offer.RefineFilters) (offer.SearchResponse, error) {
	resp, ok, err := s.store.Update(ctx, requestID, filters.Apply)
	if err != nil {
		return offer.SearchResponse{}, fmt.Errorf("refining %s: %w", requestID, err)
	}
	if !ok {
		s.log.Info("refine for unknown request", "request_id", requestID)
		return offer.Empty(requestID, s.timestamp(), UnknownRequestWarning), nil
	}
	return resp, nil
}

// Lookup returns the stored response for requestID.
func (s *Service) Lookup(ctx context.Context, requestID string) (offer.SearchResponse, bool, error) {
	return s.store.Get(ctx, requestID)
}
