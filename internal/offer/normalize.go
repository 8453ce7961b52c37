package offer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/neexbeast/tripsearch/internal/provider"
)

const (
	defaultCurrency  = "USD"
	unknownCarrier   = "Unknown"
	liveFareSummary  = "Live fare from Amadeus"
	bookingRedirect  = "redirect"
	placeholderStart = "T09:00:00"
	placeholderEnd   = "T12:00:00"
	unknownHotelName = "Unknown Hotel"
	unknownActivity  = "Local activity"
)

// FlightContext carries the query values used to fill gaps in upstream flight data.
type FlightContext struct {
	RequestID   string
	Origin      string
	Destination string
	Date        string
}

// parseAmount never fails: unparsable, negative or non-finite input yields 0.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// NewMoney builds Money from raw provider strings, defaulting the currency to USD.
func NewMoney(amount, currency string) Money {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		cur = defaultCurrency
	}
	return Money{Amount: parseAmount(amount), Currency: cur}
}

// positive returns a pointer to the parsed value, or nil when it is zero.
func positive(s string) *float64 {
	v := parseAmount(s)
	if v <= 0 {
		return nil
	}
	return &v
}

// NormalizeFlight maps one upstream offer at position idx. It always yields at least one segment.
func NormalizeFlight(raw provider.RawFlight, idx int, fc FlightContext) FlightOffer {
	segments := make([]Segment, 0, len(raw.Segments))
	for _, s := range raw.Segments {
		segments = append(segments, Segment{
			From:         orDefault(s.From, fc.Origin),
			To:           orDefault(s.To, fc.Destination),
			DepartAt:     orDefault(s.DepartAt, fc.Date+placeholderStart),
			ArriveAt:     orDefault(s.ArriveAt, fc.Date+placeholderEnd),
			Carrier:      orDefault(s.Carrier, unknownCarrier),
			FlightNumber: s.Number,
		})
	}
	if len(segments) == 0 {
		segments = []Segment{{
			From:     fc.Origin,
			To:       fc.Destination,
			DepartAt: fc.Date + placeholderStart,
			ArriveAt: fc.Date + placeholderEnd,
			Carrier:  unknownCarrier,
		}}
	}

	return FlightOffer{
		ID:               fmt.Sprintf("flight_%s_%d", fc.RequestID, idx),
		Provider:         ProviderAmadeus,
		TotalPrice:       NewMoney(raw.PriceTotal, raw.Currency),
		Segments:         segments,
		Refundable:       raw.Refundable,
		FareRulesSummary: liveFareSummary,
		JourneyMinutes:   JourneyMinutes(segments),
		AirTimeMinutes:   AirTimeMinutes(segments),
		BookingMode:      bookingRedirect,
	}
}

// NormalizeFlights maps upstream flights in order.
func NormalizeFlights(raws []provider.RawFlight, fc FlightContext) []FlightOffer {
	out := make([]FlightOffer, 0, len(raws))
	for i, r := range raws {
		out = append(out, NormalizeFlight(r, i, fc))
	}
	return out
}

// NormalizeHotel maps one upstream hotel. A zero star rating or nightly price is treated
// as absent; the offer is refundable only when a cancellation description exists.
func NormalizeHotel(raw provider.RawHotel, idx int, requestID, area string) HotelOffer {
	total := NewMoney(raw.Total, raw.Currency)

	var nightly *Money
	if v := positive(raw.NightlyBase); v != nil {
		nightly = &Money{Amount: *v, Currency: total.Currency}
	}

	cancellation := strings.TrimSpace(raw.Cancellation)
	refundable := cancellation != ""

	amenities := raw.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	return HotelOffer{
		ID:                        fmt.Sprintf("hotel_%s_%d", requestID, idx),
		Provider:                  ProviderExpediaRapid,
		Name:                      orDefault(strings.TrimSpace(raw.Name), unknownHotelName),
		StarRating:                positive(raw.Rating),
		TotalPrice:                total,
		NightlyPrice:              nightly,
		CancellationPolicySummary: cancellation,
		Refundable:                &refundable,
		Location:                  &HotelLocation{Lat: raw.Lat, Lng: raw.Lng, Area: area},
		Amenities:                 amenities,
		BookingURL:                raw.BookingURL,
	}
}

// NormalizeHotels maps upstream hotels in order.
func NormalizeHotels(raws []provider.RawHotel, requestID, area string) []HotelOffer {
	out := make([]HotelOffer, 0, len(raws))
	for i, r := range raws {
		out = append(out, NormalizeHotel(r, i, requestID, area))
	}
	return out
}

// NormalizeActivity maps one upstream activity. A zero rating is treated as absent.
func NormalizeActivity(raw provider.RawActivity, idx int, requestID, meetingPoint string) ActivityOffer {
	return ActivityOffer{
		ID:           fmt.Sprintf("activity_%s_%d", requestID, idx),
		Provider:     ProviderViator,
		Title:        orDefault(strings.TrimSpace(raw.Name), unknownActivity),
		TotalPrice:   NewMoney(raw.Amount, raw.Currency),
		Rating:       positive(raw.Rating),
		Description:  raw.Description,
		MeetingPoint: meetingPoint,
		BookingURL:   raw.BookingURL,
	}
}

// NormalizeActivities maps upstream activities in order.
func NormalizeActivities(raws []provider.RawActivity, requestID, meetingPoint string) []ActivityOffer {
	out := make([]ActivityOffer, 0, len(raws))
	for i, r := range raws {
		out = append(out, NormalizeActivity(r, i, requestID, meetingPoint))
	}
	return out
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
