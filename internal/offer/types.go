package offer

// Provider tags attached to normalized offers.
const (
	ProviderAmadeus      = "amadeus"
	ProviderExpediaRapid = "expedia_rapid"
	ProviderViator       = "viator"
)

// Money is a non-negative amount paired with an uppercase 3-letter currency code.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Segment is a single flight leg.
type Segment struct {
	From         string `json:"from"`
	To           string `json:"to"`
	DepartAt     string `json:"depart_at"`
	ArriveAt     string `json:"arrive_at"`
	Carrier      string `json:"carrier"`
	FlightNumber string `json:"flight_number,omitempty"`
}

// FlightOffer always carries at least one segment.
type FlightOffer struct {
	ID               string    `json:"id"`
	Provider         string    `json:"provider"`
	TotalPrice       Money     `json:"total_price"`
	Segments         []Segment `json:"segments"`
	Refundable       *bool     `json:"refundable,omitempty"`
	FareRulesSummary string    `json:"fare_rules_summary,omitempty"`
	JourneyMinutes   *int      `json:"journey_minutes,omitempty"`
	AirTimeMinutes   *int      `json:"air_time_minutes,omitempty"`
	BookingMode      string    `json:"booking_mode"`
	Score            float64   `json:"score"`
}

// HotelLocation is the optional position of a hotel.
type HotelLocation struct {
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
	Area string   `json:"area,omitempty"`
}

// HotelOffer is a normalized hotel offer. StarRating and NightlyPrice are nil when the
// provider reported zero or nothing.
type HotelOffer struct {
	ID                        string         `json:"id"`
	Provider                  string         `json:"provider"`
	Name                      string         `json:"hotel_name"`
	StarRating                *float64       `json:"star_rating,omitempty"`
	TotalPrice                Money          `json:"total_price"`
	NightlyPrice              *Money         `json:"nightly_price,omitempty"`
	CancellationPolicySummary string         `json:"cancellation_policy_summary,omitempty"`
	Refundable                *bool          `json:"refundable,omitempty"`
	Location                  *HotelLocation `json:"location,omitempty"`
	Amenities                 []string       `json:"amenities"`
	BookingURL                string         `json:"booking_url,omitempty"`
	Score                     float64        `json:"score"`
}

// ActivityOffer is a normalized tour or activity.
type ActivityOffer struct {
	ID           string   `json:"id"`
	Provider     string   `json:"provider"`
	Title        string   `json:"title"`
	TotalPrice   Money    `json:"total_price"`
	Rating       *float64 `json:"rating,omitempty"`
	Description  string   `json:"description,omitempty"`
	MeetingPoint string   `json:"meeting_point,omitempty"`
	BookingURL   string   `json:"booking_url,omitempty"`
	Score        float64  `json:"score"`
}

// SearchResponse is the aggregated result of one search call. It is replaced as a
// whole by refinement, never mutated in place.
type SearchResponse struct {
	RequestID   string          `json:"request_id"`
	FreshnessTS string          `json:"freshness_ts"`
	Flights     []FlightOffer   `json:"flights"`
	Hotels      []HotelOffer    `json:"hotels"`
	Activities  []ActivityOffer `json:"activities"`
	Warnings    []string        `json:"warnings"`
}

// Empty returns a response with no offers and the given warnings.
func Empty(requestID, freshness string, warnings ...string) SearchResponse {
	if warnings == nil {
		warnings = []string{}
	}
	return SearchResponse{
		RequestID:   requestID,
		FreshnessTS: freshness,
		Flights:     []FlightOffer{},
		Hotels:      []HotelOffer{},
		Activities:  []ActivityOffer{},
		Warnings:    warnings,
	}
}

// RefineFilters narrows an already-aggregated response. Zero values mean "not set".
type RefineFilters struct {
	MaxPrice           *Money   `json:"max_price,omitempty"`
	AirlineWhitelist   []string `json:"airline_whitelist,omitempty"`
	HotelStarsMin      *int     `json:"hotel_stars_min,omitempty"`
	RefundableOnly     *bool    `json:"refundable_only,omitempty"`
	ActivityCategories []string `json:"activity_categories,omitempty"`
}

// Day is one itinerary day. Numbering starts at 1.
type Day struct {
	Day        int      `json:"day" validate:"min=1"`
	Activities []string `json:"activities" validate:"required"`
}

// Itinerary is an ordered, contiguous list of days.
type Itinerary []Day
