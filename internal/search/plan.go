package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/neexbeast/tripsearch/internal/location"
	"github.com/neexbeast/tripsearch/internal/offer"
)

const (
	defaultPlanDays = 3
	departureLead   = 30 * 24 * time.Hour
	maxFlightCards  = 3
	dateLayout      = "2006-01-02"
)

// FlightCard is a display summary of a flight offer.
type FlightCard struct {
	OfferID          string `json:"offer_id"`
	Route            string `json:"route"`
	Carrier          string `json:"carrier"`
	DepartAt         string `json:"depart_at"`
	ArriveAt         string `json:"arrive_at"`
	Price            string `json:"price"`
	Stops            int    `json:"stops"`
	JourneyDuration  string `json:"journey_duration,omitempty"`
	AirTime          string `json:"air_time,omitempty"`
	RefundableStatus string `json:"refundable_status"`
}

// HotelCard is a display summary of a hotel offer.
type HotelCard struct {
	OfferID string `json:"offer_id"`
	Name    string `json:"name"`
	Price   string `json:"price"`
	Rating  string `json:"rating"`
}

// TripPlan is the output of PlanTrip.
type TripPlan struct {
	Destination   string          `json:"destination"`
	RequestID     string          `json:"request_id"`
	DepartureDate string          `json:"departure_date"`
	Days          int             `json:"days"`
	Flights       []FlightCard    `json:"flights"`
	Hotels        []HotelCard     `json:"hotels"`
	Itinerary     offer.Itinerary `json:"itinerary"`
	Warnings      []string        `json:"warnings"`
}

// PlanTrip runs a search for a destination and day count and lays the activities
// found out as a day-by-day itinerary.
func (s *Service) PlanTrip(ctx context.Context, req PlanRequest) (TripPlan, error) {
	if err := check(req); err != nil {
		return TripPlan{}, err
	}

	days := req.Days
	if days == 0 {
		days = defaultPlanDays
	}

	start := s.now().UTC().Add(departureLead)
	if req.DepartureDate != "" {
		parsed, err := time.Parse(dateLayout, req.DepartureDate)
		if err != nil {
			return TripPlan{}, fmt.Errorf("%w: departure_date: %v", ErrInvalidRequest, err)
		}
		start = parsed
	}
	end := start.AddDate(0, 0, days-1)

	name := strings.TrimSpace(req.Destination)
	dest := Destination{Code: strings.ToUpper(strings.TrimSpace(req.DestinationCode))}
	if dest.Code == "" {
		if loc, ok := s.resolver.Resolve(ctx, name); ok {
			dest.Code, dest.Lat, dest.Lng = loc.Code, loc.Lat, loc.Lng
			if loc.Source == location.SourceLive && loc.Name != "" {
				name = loc.Name
			}
		}
	}
	dest.City = name

	origin := strings.ToUpper(strings.TrimSpace(req.Origin))
	if origin == "" {
		origin = s.defaultOrigin
	}

	resp, err := s.Search(ctx, TripRequest{
		Origin:      Origin{Code: origin, City: origin},
		Destination: dest,
		Dates: DateRange{
			StartDate: start.Format(dateLayout),
			EndDate:   end.Format(dateLayout),
		},
		Travelers: Travelers{Adults: 1},
	})
	if err != nil {
		return TripPlan{}, err
	}

	pool := lo.Uniq(lo.Map(resp.Activities, func(a offer.ActivityOffer, _ int) string { return a.Title }))
	built := s.builder.Build(name, pool, days)

	warnings := resp.Warnings
	if built.UsedFallback {
		warnings = lo.Without(warnings, NoActivitiesWarning)
		warnings = append(warnings, built.Warning)
	}

	s.log.Info("trip planned",
		"request_id", resp.RequestID,
		"destination", name,
		"days", days,
		"curated", built.UsedFallback,
	)

	return TripPlan{
		Destination:   name,
		RequestID:     resp.RequestID,
		DepartureDate: start.Format(dateLayout),
		Days:          days,
		Flights:       flightCards(resp.Flights),
		Hotels:        hotelCards(resp.Hotels),
		Itinerary:     built.Days,
		Warnings:      warnings,
	}, nil
}

// BuildItinerary lays out an itinerary from a caller-supplied pool without searching.
// A non-positive days falls back to the PlanTrip default.
func (s *Service) BuildItinerary(destination string, pool []string, days int) (offer.Itinerary, []string) {
	if days < 1 {
		days = defaultPlanDays
	}
	built := s.builder.Build(destination, pool, days)
	if built.UsedFallback {
		return built.Days, []string{built.Warning}
	}
	return built.Days, []string{}
}

func flightCards(flights []offer.FlightOffer) []FlightCard {
	cards := make([]FlightCard, 0, maxFlightCards)
	for _, f := range flights {
		if len(cards) == maxFlightCards {
			break
		}
		if len(f.Segments) == 0 {
			continue
		}
		first, last := f.Segments[0], f.Segments[len(f.Segments)-1]

		card := FlightCard{
			OfferID:          f.ID,
			Route:            first.From + " -> " + last.To,
			Carrier:          first.Carrier,
			DepartAt:         first.DepartAt,
			ArriveAt:         last.ArriveAt,
			Price:            fmt.Sprintf("%s %.0f", f.TotalPrice.Currency, f.TotalPrice.Amount),
			Stops:            len(f.Segments) - 1,
			RefundableStatus: refundableStatus(f.Refundable),
		}
		if f.JourneyMinutes != nil {
			card.JourneyDuration = offer.FormatMinutes(*f.JourneyMinutes)
		}
		if f.AirTimeMinutes != nil {
			card.AirTime = offer.FormatMinutes(*f.AirTimeMinutes)
		}
		cards = append(cards, card)
	}
	return cards
}

func refundableStatus(r *bool) string {
	switch {
	case r == nil:
		return "Refundability unknown"
	case *r:
		return "Refundable"
	default:
		return "Non-refundable"
	}
}

func hotelCards(hotels []offer.HotelOffer) []HotelCard {
	return lo.Map(hotels, func(h offer.HotelOffer, _ int) HotelCard {
		card := HotelCard{
			OfferID: h.ID,
			Name:    h.Name,
			Price:   "Check for rates",
			Rating:  "N/A",
		}
		if h.NightlyPrice != nil {
			card.Price = fmt.Sprintf("%s%.0f/night", currencySymbol(h.TotalPrice.Currency), h.NightlyPrice.Amount)
		}
		if h.StarRating != nil && *h.StarRating > 0 {
			card.Rating = fmt.Sprintf("%.1f", *h.StarRating)
		}
		return card
	})
}

func currencySymbol(currency string) string {
	switch c := strings.ToUpper(currency); c {
	case "USD":
		return "$"
	case "":
		return "CUR "
	default:
		return c + " "
	}
}
