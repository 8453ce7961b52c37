package search_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripsearch/internal/itinerary"
	"github.com/neexbeast/tripsearch/internal/location"
	"github.com/neexbeast/tripsearch/internal/offer"
	"github.com/neexbeast/tripsearch/internal/provider"
	"github.com/neexbeast/tripsearch/internal/search"
	"github.com/neexbeast/tripsearch/internal/session"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubGateway struct {
	mu sync.Mutex

	flights       []provider.RawFlight
	flightsErr    error
	hotels        []provider.RawHotel
	hotelsErr     error
	activities    []provider.RawActivity
	activitiesErr error
	panicOn       string

	flightCalls   []string
	hotelCalls    []string
	activityCalls int
}

func (g *stubGateway) SearchFlights(_ context.Context, origin, destination, date string) ([]provider.RawFlight, error) {
	g.mu.Lock()
	g.flightCalls = append(g.flightCalls, origin+"-"+destination+"@"+date)
	g.mu.Unlock()
	if g.panicOn == provider.OpFlights {
		panic("flight client exploded")
	}
	return g.flights, g.flightsErr
}

func (g *stubGateway) SearchHotels(_ context.Context, cityCode, checkIn, checkOut string, _ int) ([]provider.RawHotel, error) {
	g.mu.Lock()
	g.hotelCalls = append(g.hotelCalls, cityCode+":"+checkIn+".."+checkOut)
	g.mu.Unlock()
	return g.hotels, g.hotelsErr
}

func (g *stubGateway) SearchActivities(_ context.Context, _, _ float64) ([]provider.RawActivity, error) {
	g.mu.Lock()
	g.activityCalls++
	g.mu.Unlock()
	return g.activities, g.activitiesErr
}

type stubResolver struct {
	locations map[string]location.Location
	calls     []string
}

func (r *stubResolver) Resolve(_ context.Context, keyword string) (location.Location, bool) {
	r.calls = append(r.calls, keyword)
	loc, ok := r.locations[keyword]
	return loc, ok
}

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T, gw search.Gateway, res search.Resolver) (*search.Service, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := search.NewService(res, gw, store, itinerary.NewBuilder(itinerary.DefaultCatalog), "lon", log)

	n := 0
	svc.SetClock(func() time.Time { return fixedNow }, func() string {
		n++
		return "req-" + string(rune('0'+n))
	})
	return svc, store
}

func parisRequest() search.TripRequest {
	return search.TripRequest{
		Origin:      search.Origin{Code: "NYC"},
		Destination: search.Destination{City: "Paris"},
		Dates:       search.DateRange{StartDate: "2026-05-01", EndDate: "2026-05-04"},
		Travelers:   search.Travelers{Adults: 2},
	}
}

func liveParis() *stubResolver {
	return &stubResolver{locations: map[string]location.Location{
		"Paris": {Name: "PARIS", Code: "PAR", Lat: ptr(48.85), Lng: ptr(2.35), Source: location.SourceLive},
	}}
}

func TestSearch_AggregatesAndScores(t *testing.T) {
	gw := &stubGateway{
		flights: []provider.RawFlight{
			{PriceTotal: "320.00", Currency: "eur"},
			{PriceTotal: "410.00", Currency: "EUR"},
			{PriceTotal: "505.50", Currency: "EUR"},
		},
		hotels: []provider.RawHotel{
			{Name: "Hotel A", Total: "600", Currency: "EUR", Rating: "4.2"},
			{Name: "Hotel B", Total: "400", Currency: "EUR"},
		},
		activities: []provider.RawActivity{
			{Name: "Louvre tour", Amount: "65", Currency: "EUR", Rating: "4.5"},
		},
	}
	svc, store := newService(t, gw, liveParis())

	resp, err := svc.Search(context.Background(), parisRequest())
	require.NoError(t, err)

	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.FreshnessTS)
	assert.Empty(t, resp.Warnings)
	assert.NotNil(t, resp.Warnings)

	require.Len(t, resp.Flights, 3)
	assert.Equal(t, []float64{95, 90, 85}, []float64{resp.Flights[0].Score, resp.Flights[1].Score, resp.Flights[2].Score})
	assert.Equal(t, "flight_req-1_0", resp.Flights[0].ID)
	assert.Equal(t, "EUR", resp.Flights[0].TotalPrice.Currency)
	assert.Equal(t, "NYC", resp.Flights[0].Segments[0].From)
	assert.Equal(t, "PAR", resp.Flights[0].Segments[0].To)

	require.Len(t, resp.Hotels, 2)
	assert.InDelta(t, 84.0, resp.Hotels[0].Score, 1e-9)
	assert.InDelta(t, 84.0, resp.Hotels[1].Score, 1e-9)
	assert.Equal(t, "Paris", resp.Hotels[0].Location.Area)

	require.Len(t, resp.Activities, 1)
	assert.InDelta(t, 90.0, resp.Activities[0].Score, 1e-9)

	assert.Equal(t, []string{"NYC-PAR@2026-05-01"}, gw.flightCalls)
	assert.Equal(t, []string{"PAR:2026-05-01..2026-05-04"}, gw.hotelCalls)
	assert.Equal(t, 1, gw.activityCalls)

	stored, ok, err := store.Get(context.Background(), resp.RequestID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resp, stored)
}

func TestSearch_UnresolvableDestination(t *testing.T) {
	gw := &stubGateway{}
	svc, store := newService(t, gw, &stubResolver{})

	req := parisRequest()
	req.Destination = search.Destination{City: "Atlantis"}

	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{search.UnresolvedWarning("Atlantis")}, resp.Warnings)
	assert.Empty(t, resp.Flights)
	assert.Empty(t, resp.Hotels)
	assert.Empty(t, resp.Activities)
	assert.Empty(t, gw.flightCalls)
	assert.Empty(t, gw.hotelCalls)
	assert.Zero(t, gw.activityCalls)
	assert.Equal(t, 1, store.Len())
}

func TestSearch_FallbackCodeWithoutCoordinates(t *testing.T) {
	gw := &stubGateway{flights: []provider.RawFlight{{PriceTotal: "100"}}}
	res := &stubResolver{locations: map[string]location.Location{
		"Rome": {Name: "Rome", Code: "ROM", Source: location.SourceFallback},
	}}
	svc, _ := newService(t, gw, res)

	req := parisRequest()
	req.Destination = search.Destination{City: "Rome"}

	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{
		search.FallbackCodeWarning("Rome", "ROM"),
		search.NoHotelsWarning,
		search.NoActivitiesWarning,
	}, resp.Warnings)
	assert.Zero(t, gw.activityCalls)
	require.Len(t, resp.Flights, 1)
	assert.Equal(t, "USD", resp.Flights[0].TotalPrice.Currency)
}

func TestSearch_ExplicitCodeStillLooksUpCoordinates(t *testing.T) {
	gw := &stubGateway{}
	res := liveParis()
	svc, _ := newService(t, gw, res)

	req := parisRequest()
	req.Destination = search.Destination{Code: "cdg", City: "Paris"}
	req.Origin = search.Origin{}

	_, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"LON-CDG@2026-05-01"}, gw.flightCalls)
	assert.Equal(t, []string{"Paris"}, res.calls)
	assert.Equal(t, 1, gw.activityCalls)
}

func TestSearch_ProviderFailuresAreSoft(t *testing.T) {
	gw := &stubGateway{
		panicOn:       provider.OpFlights,
		hotelsErr:     &provider.Error{Op: provider.OpHotels, Kind: provider.KindUnavailable, Err: errors.New("503")},
		activitiesErr: &provider.Error{Op: provider.OpActivities, Kind: provider.KindUnavailable, Err: errors.New("timeout")},
	}
	svc, _ := newService(t, gw, liveParis())

	resp, err := svc.Search(context.Background(), parisRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{
		search.NoFlightsWarning,
		search.NoHotelsWarning,
		search.NoActivitiesWarning,
	}, resp.Warnings)
	assert.NotNil(t, resp.Flights)
	assert.NotNil(t, resp.Hotels)
	assert.NotNil(t, resp.Activities)
}

func TestSearch_InvalidRequest(t *testing.T) {
	svc, store := newService(t, &stubGateway{}, liveParis())

	cases := map[string]func(*search.TripRequest){
		"no destination": func(r *search.TripRequest) { r.Destination = search.Destination{} },
		"bad date":       func(r *search.TripRequest) { r.Dates.StartDate = "01/05/2026" },
		"no adults":      func(r *search.TripRequest) { r.Travelers.Adults = 0 },
		"long code":      func(r *search.TripRequest) { r.Origin.Code = "LOND" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := parisRequest()
			mutate(&req)
			_, err := svc.Search(context.Background(), req)
			assert.ErrorIs(t, err, search.ErrInvalidRequest)
		})
	}
	assert.Zero(t, store.Len())
}

func TestRefine(t *testing.T) {
	gw := &stubGateway{
		flights: []provider.RawFlight{
			{PriceTotal: "300", Currency: "EUR", Segments: []provider.RawSegment{{Carrier: "AF"}}},
			{PriceTotal: "200", Currency: "EUR", Segments: []provider.RawSegment{{Carrier: "BA"}}},
		},
		hotels: []provider.RawHotel{
			{Name: "Grand", Total: "900", Rating: "5"},
			{Name: "Budget", Total: "150", Rating: "2"},
		},
	}
	svc, _ := newService(t, gw, liveParis())
	ctx := context.Background()

	resp, err := svc.Search(ctx, parisRequest())
	require.NoError(t, err)

	t.Run("empty filters are idempotent", func(t *testing.T) {
		first, err := svc.Refine(ctx, resp.RequestID, offer.RefineFilters{})
		require.NoError(t, err)
		second, err := svc.Refine(ctx, resp.RequestID, offer.RefineFilters{})
		require.NoError(t, err)
		assert.Equal(t, resp, first)
		assert.Equal(t, first, second)
	})

	t.Run("filters narrow the stored response", func(t *testing.T) {
		refined, err := svc.Refine(ctx, resp.RequestID, offer.RefineFilters{
			MaxPrice: &offer.Money{Amount: 500, Currency: "EUR"},
		})
		require.NoError(t, err)
		assert.Len(t, refined.Flights, 2)
		require.Len(t, refined.Hotels, 1)
		assert.Equal(t, "Budget", refined.Hotels[0].Name)
		assert.Equal(t, resp.FreshnessTS, refined.FreshnessTS)
		assert.Equal(t, resp.Warnings, refined.Warnings)

		again, err := svc.Refine(ctx, resp.RequestID, offer.RefineFilters{AirlineWhitelist: []string{"ba"}})
		require.NoError(t, err)
		require.Len(t, again.Flights, 1)
		assert.Equal(t, "BA", again.Flights[0].Segments[0].Carrier)
		assert.Len(t, again.Hotels, 1)
	})

	t.Run("unknown request id", func(t *testing.T) {
		refined, err := svc.Refine(ctx, "missing", offer.RefineFilters{})
		require.NoError(t, err)
		assert.Equal(t, "missing", refined.RequestID)
		assert.Equal(t, []string{search.UnknownRequestWarning}, refined.Warnings)
		assert.Empty(t, refined.Flights)
		assert.Empty(t, refined.Hotels)
		assert.Empty(t, refined.Activities)
	})
}

// slowGateway answers every call after delay unless ctx ends first.
type slowGateway struct {
	delay time.Duration
}

func (g *slowGateway) wait(ctx context.Context) error {
	select {
	case <-time.After(g.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *slowGateway) SearchFlights(ctx context.Context, _, _, _ string) ([]provider.RawFlight, error) {
	if err := g.wait(ctx); err != nil {
		return nil, &provider.Error{Op: provider.OpFlights, Kind: provider.KindUnavailable, Err: err}
	}
	return []provider.RawFlight{{PriceTotal: "300", Currency: "EUR"}}, nil
}

func (g *slowGateway) SearchHotels(ctx context.Context, _, _, _ string, _ int) ([]provider.RawHotel, error) {
	if err := g.wait(ctx); err != nil {
		return nil, &provider.Error{Op: provider.OpHotels, Kind: provider.KindUnavailable, Err: err}
	}
	return []provider.RawHotel{{Name: "Hotel A", Total: "500", Currency: "EUR"}}, nil
}

func (g *slowGateway) SearchActivities(ctx context.Context, _, _ float64) ([]provider.RawActivity, error) {
	if err := g.wait(ctx); err != nil {
		return nil, &provider.Error{Op: provider.OpActivities, Kind: provider.KindUnavailable, Err: err}
	}
	return []provider.RawActivity{{Name: "Louvre tour", Amount: "65", Currency: "EUR"}}, nil
}

func TestSearch_FetchesConcurrently(t *testing.T) {
	svc, _ := newService(t, &slowGateway{delay: 200 * time.Millisecond}, liveParis())

	start := time.Now()
	resp, err := svc.Search(context.Background(), parisRequest())
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, 450*time.Millisecond, "three 200ms calls must overlap")
	assert.Len(t, resp.Flights, 1)
	assert.Len(t, resp.Hotels, 1)
	assert.Len(t, resp.Activities, 1)
	assert.Empty(t, resp.Warnings)
}

func TestSearch_CancelledMidFetch(t *testing.T) {
	svc, store := newService(t, &slowGateway{delay: 5 * time.Second}, liveParis())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	defer cancel()

	start := time.Now()
	resp, err := svc.Search(ctx, parisRequest())
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, time.Second)
	assert.NotNil(t, resp.Flights)
	assert.Empty(t, resp.Flights)
	assert.Empty(t, resp.Hotels)
	assert.Empty(t, resp.Activities)
	assert.Equal(t, []string{search.NoFlightsWarning, search.NoHotelsWarning, search.NoActivitiesWarning}, resp.Warnings)
	assert.Equal(t, 1, store.Len())
}

// stalledFlights never answers until its context ends.
type stalledFlights struct{}

func (stalledFlights) FlightOffers(ctx context.Context, _, _, _ string) ([]provider.RawFlight, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type quickHotelsAndActivities struct{}

func (quickHotelsAndActivities) HotelIDsByCity(context.Context, string) ([]string, error) {
	return []string{"H1"}, nil
}

func (quickHotelsAndActivities) HotelOffers(context.Context, []string, string, string, int) ([]provider.RawHotel, error) {
	return []provider.RawHotel{{Name: "Hotel A", Total: "500", Currency: "EUR"}}, nil
}

func (quickHotelsAndActivities) Activities(context.Context, float64, float64) ([]provider.RawActivity, error) {
	return []provider.RawActivity{{Name: "Louvre tour", Amount: "65", Currency: "EUR"}}, nil
}

func TestSearch_SlowProviderBoundedByTimeout(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	quick := quickHotelsAndActivities{}
	gw := provider.NewGatewayWithClients(stalledFlights{}, quick, quick, 100*time.Millisecond, log)
	svc, _ := newService(t, gw, liveParis())

	start := time.Now()
	resp, err := svc.Search(context.Background(), parisRequest())
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, time.Second)
	assert.Empty(t, resp.Flights)
	assert.Len(t, resp.Hotels, 1)
	assert.Len(t, resp.Activities, 1)
	assert.Equal(t, []string{search.NoFlightsWarning}, resp.Warnings)
}
