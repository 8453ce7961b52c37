package offer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neexbeast/tripsearch/internal/offer"
)

func filterFixture() offer.SearchResponse {
	resp := offer.Empty("r1", "2026-03-01T12:00:00Z", "No live activities were returned for this query.")
	resp.Flights = []offer.FlightOffer{
		{ID: "f0", TotalPrice: offer.Money{Amount: 300, Currency: "EUR"}, Refundable: ptr(true),
			Segments: []offer.Segment{{Carrier: "AF"}, {Carrier: "KL"}}},
		{ID: "f1", TotalPrice: offer.Money{Amount: 150, Currency: "EUR"},
			Segments: []offer.Segment{{Carrier: "BA"}}},
		{ID: "f2", TotalPrice: offer.Money{Amount: 900, Currency: "EUR"}, Refundable: ptr(false),
			Segments: []offer.Segment{{Carrier: "af"}}},
	}
	resp.Hotels = []offer.HotelOffer{
		{ID: "h0", TotalPrice: offer.Money{Amount: 400}, StarRating: ptr(4.5), Refundable: ptr(true)},
		{ID: "h1", TotalPrice: offer.Money{Amount: 200}, StarRating: ptr(3.0), Refundable: ptr(false)},
		{ID: "h2", TotalPrice: offer.Money{Amount: 100}, Refundable: ptr(true)},
	}
	resp.Activities = []offer.ActivityOffer{
		{ID: "a0", Title: "Louvre Museum tour", TotalPrice: offer.Money{Amount: 65}},
		{ID: "a1", Title: "Seine cruise", Description: "Evening FOOD and wine", TotalPrice: offer.Money{Amount: 90}},
		{ID: "a2", Title: "Bike ride", TotalPrice: offer.Money{Amount: 600}},
	}
	return resp
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func flightIDs(r offer.SearchResponse) []string {
	return ids(r.Flights, func(f offer.FlightOffer) string { return f.ID })
}
func hotelIDs(r offer.SearchResponse) []string {
	return ids(r.Hotels, func(h offer.HotelOffer) string { return h.ID })
}
func activityIDs(r offer.SearchResponse) []string {
	return ids(r.Activities, func(a offer.ActivityOffer) string { return a.ID })
}

func TestApply_ZeroFiltersReturnsInput(t *testing.T) {
	resp := filterFixture()
	assert.True(t, offer.RefineFilters{}.IsZero())
	assert.True(t, offer.RefineFilters{RefundableOnly: ptr(false)}.IsZero())
	assert.Equal(t, resp, offer.RefineFilters{}.Apply(resp))
}

func TestApply_MaxPriceIgnoresCurrency(t *testing.T) {
	got := offer.RefineFilters{MaxPrice: &offer.Money{Amount: 300, Currency: "JPY"}}.Apply(filterFixture())

	assert.Equal(t, []string{"f0", "f1"}, flightIDs(got))
	assert.Equal(t, []string{"h1", "h2"}, hotelIDs(got))
	assert.Equal(t, []string{"a0", "a1"}, activityIDs(got))
}

func TestApply_AirlineWhitelistAllSegments(t *testing.T) {
	got := offer.RefineFilters{AirlineWhitelist: []string{"af"}}.Apply(filterFixture())
	assert.Equal(t, []string{"f2"}, flightIDs(got))

	got = offer.RefineFilters{AirlineWhitelist: []string{"AF", " kl "}}.Apply(filterFixture())
	assert.Equal(t, []string{"f0", "f2"}, flightIDs(got))

	// Hotels and activities are not affected by an airline filter.
	assert.Len(t, got.Hotels, 3)
	assert.Len(t, got.Activities, 3)
}

func TestApply_RefundableOnly(t *testing.T) {
	got := offer.RefineFilters{RefundableOnly: ptr(true)}.Apply(filterFixture())

	assert.Equal(t, []string{"f0"}, flightIDs(got))
	assert.Equal(t, []string{"h0", "h2"}, hotelIDs(got))
	assert.Len(t, got.Activities, 3)
}

func TestApply_HotelStarsMinExcludesUnrated(t *testing.T) {
	got := offer.RefineFilters{HotelStarsMin: ptr(3)}.Apply(filterFixture())
	assert.Equal(t, []string{"h0", "h1"}, hotelIDs(got))

	got = offer.RefineFilters{HotelStarsMin: ptr(5)}.Apply(filterFixture())
	assert.Empty(t, got.Hotels)
	assert.NotNil(t, got.Hotels)
}

func TestApply_ActivityCategories(t *testing.T) {
	got := offer.RefineFilters{ActivityCategories: []string{"museum", "food"}}.Apply(filterFixture())
	assert.Equal(t, []string{"a0", "a1"}, activityIDs(got))

	got = offer.RefineFilters{ActivityCategories: []string{"  "}}.Apply(filterFixture())
	assert.Empty(t, got.Activities)
}

func TestApply_CombinesWithAnd(t *testing.T) {
	got := offer.RefineFilters{
		MaxPrice:       &offer.Money{Amount: 350},
		RefundableOnly: ptr(true),
	}.Apply(filterFixture())

	assert.Equal(t, []string{"f0"}, flightIDs(got))
	assert.Equal(t, []string{"h2"}, hotelIDs(got))
}

func TestApply_CarriesMetadataAndDoesNotMutate(t *testing.T) {
	resp := filterFixture()
	got := offer.RefineFilters{MaxPrice: &offer.Money{Amount: 1}}.Apply(resp)

	assert.Equal(t, resp.RequestID, got.RequestID)
	assert.Equal(t, resp.FreshnessTS, got.FreshnessTS)
	assert.Equal(t, resp.Warnings, got.Warnings)
	assert.Empty(t, got.Flights)
	assert.Len(t, resp.Flights, 3)
}

func TestApply_IsIdempotent(t *testing.T) {
	f := offer.RefineFilters{MaxPrice: &offer.Money{Amount: 300}, ActivityCategories: []string{"tour"}}
	once := f.Apply(filterFixture())
	assert.Equal(t, once, f.Apply(once))
}
