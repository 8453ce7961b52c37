package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	maxFlights    = 3
	maxHotelIDs   = 20
	maxHotels     = 5
	maxActivities = 8
	dateLayout    = "2006-01-02"
)

// flightSearcher is the interface satisfied by AmadeusClient for flights.
type flightSearcher interface {
	FlightOffers(ctx context.Context, origin, destination, date string) ([]RawFlight, error)
}

// hotelSearcher is the interface satisfied by AmadeusClient for hotels.
type hotelSearcher interface {
	HotelIDsByCity(ctx context.Context, cityCode string) ([]string, error)
	HotelOffers(ctx context.Context, hotelIDs []string, checkIn, checkOut string, adults int) ([]RawHotel, error)
}

// activitySearcher is the interface satisfied by AmadeusClient for activities.
type activitySearcher interface {
	Activities(ctx context.Context, lat, lng float64) ([]RawActivity, error)
}

// Gateway isolates each upstream call: every failure is logged with its parameters and
// returned as *Error, never as the upstream's own error.
type Gateway struct {
	flights    flightSearcher
	hotels     hotelSearcher
	activities activitySearcher
	timeout    time.Duration
	log        *slog.Logger
}

// NewGateway constructs a Gateway backed by a single Amadeus client.
func NewGateway(client *AmadeusClient, timeout time.Duration, log *slog.Logger) *Gateway {
	return NewGatewayWithClients(client, client, client, timeout, log)
}

// NewGatewayWithClients constructs a Gateway with injectable searchers (used in tests).
func NewGatewayWithClients(f flightSearcher, h hotelSearcher, a activitySearcher, timeout time.Duration, log *slog.Logger) *Gateway {
	return &Gateway{flights: f, hotels: h, activities: a, timeout: timeout, log: log}
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// SearchFlights returns at most 3 offers in upstream order.
func (g *Gateway) SearchFlights(ctx context.Context, origin, destination, date string) ([]RawFlight, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	flights, err := g.flights.FlightOffers(ctx, origin, destination, date)
	if err != nil {
		g.log.Warn("flight search failed",
			"origin", origin, "destination", destination, "date", date, "err", err)
		return nil, newError(OpFlights, KindUnavailable, err)
	}

	return capped(flights, maxFlights), nil
}

// SearchHotels resolves the city to at most 20 hotel ids, then returns at most 5 offers.
// A check-out on or before check-in is moved to the day after check-in.
func (g *Gateway) SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) ([]RawHotel, error) {
	in, out, err := RepairStay(checkIn, checkOut)
	if err != nil {
		g.log.Warn("hotel search skipped: invalid dates",
			"city_code", cityCode, "check_in", checkIn, "check_out", checkOut, "err", err)
		return nil, newError(OpHotels, KindMalformedInput, err)
	}
	adults = max(1, adults)

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	ids, err := g.hotels.HotelIDsByCity(ctx, cityCode)
	if err != nil {
		g.log.Warn("hotel id lookup failed", "city_code", cityCode, "err", err)
		return nil, newError(OpHotels, KindUnavailable, err)
	}
	if len(ids) == 0 {
		g.log.Warn("hotel id lookup returned nothing", "city_code", cityCode)
		return nil, newError(OpHotels, KindEmpty, fmt.Errorf("no hotel ids for city %s", cityCode))
	}

	hotels, err := g.hotels.HotelOffers(ctx, capped(ids, maxHotelIDs), in, out, adults)
	if err != nil {
		g.log.Warn("hotel offer search failed",
			"city_code", cityCode, "check_in", in, "check_out", out, "adults", adults, "err", err)
		return nil, newError(OpHotels, KindUnavailable, err)
	}

	return capped(hotels, maxHotels), nil
}

// SearchActivities returns at most 8 activities around the coordinate.
func (g *Gateway) SearchActivities(ctx context.Context, lat, lng float64) ([]RawActivity, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	activities, err := g.activities.Activities(ctx, lat, lng)
	if err != nil {
		g.log.Warn("activity search failed", "lat", lat, "lng", lng, "err", err)
		return nil, newError(OpActivities, KindUnavailable, err)
	}

	return capped(activities, maxActivities), nil
}

// RepairStay parses both dates and, when check-out is not after check-in, advances
// check-out to check-in plus one day.
func RepairStay(checkIn, checkOut string) (string, string, error) {
	in, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return "", "", fmt.Errorf("parsing check-in %q: %w", checkIn, err)
	}
	out, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return "", "", fmt.Errorf("parsing check-out %q: %w", checkOut, err)
	}
	if !out.After(in) {
		out = in.AddDate(0, 0, 1)
	}
	return in.Format(dateLayout), out.Format(dateLayout), nil
}

func capped[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
