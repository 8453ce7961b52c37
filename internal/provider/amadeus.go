package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultAmadeusBaseURL is the Amadeus test environment.
const DefaultAmadeusBaseURL = "https://test.api.amadeus.com"

const (
	httpTimeout        = 10 * time.Second
	amadeusTokenPath   = "/v1/security/oauth2/token"
	maxHotelAmenities  = 8
	defaultFlightSeats = 1
)

// AmadeusClient talks to the Amadeus self-service APIs. Tokens are obtained and
// refreshed through the OAuth2 client-credentials flow.
type AmadeusClient struct {
	baseURL string
	client  *http.Client
}

// NewAmadeusClient constructs a client against the given base URL. An empty baseURL
// selects the Amadeus test environment.
func NewAmadeusClient(baseURL, apiKey, apiSecret string) *AmadeusClient {
	if baseURL == "" {
		baseURL = DefaultAmadeusBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	cfg := clientcredentials.Config{
		ClientID:     apiKey,
		ClientSecret: apiSecret,
		TokenURL:     baseURL + amadeusTokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	// The token source uses this client for token requests; the returned client wraps it.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: httpTimeout})
	client := cfg.Client(tokenCtx)
	client.Timeout = httpTimeout

	return &AmadeusClient{baseURL: baseURL, client: client}
}

// doGet performs an authorized GET and decodes the JSON response into dst.
func (c *AmadeusClient) doGet(ctx context.Context, path string, params url.Values, dst any) error {
	rawURL := c.baseURL + path
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}

	return nil
}

// flexString accepts both JSON strings and bare numbers; Amadeus is not consistent.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

type geoCode struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ---- Locations ----

type locationsResponse struct {
	Data []struct {
		Name     string  `json:"name"`
		IATACode string  `json:"iataCode"`
		GeoCode  geoCode `json:"geoCode"`
	} `json:"data"`
}

// SearchCities looks up cities matching keyword, in upstream relevance order.
func (c *AmadeusClient) SearchCities(ctx context.Context, keyword string) ([]RawLocation, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("subType", "CITY")

	var raw locationsResponse
	if err := c.doGet(ctx, "/v1/reference-data/locations", params, &raw); err != nil {
		return nil, fmt.Errorf("amadeus location search for %s: %w", keyword, err)
	}

	locations := make([]RawLocation, 0, len(raw.Data))
	for _, d := range raw.Data {
		locations = append(locations, RawLocation{
			Name:     d.Name,
			IATACode: d.IATACode,
			Lat:      d.GeoCode.Latitude,
			Lng:      d.GeoCode.Longitude,
		})
	}
	return locations, nil
}

// ---- Flights ----

type flightOffersResponse struct {
	Data []struct {
		Price struct {
			Total    flexString `json:"total"`
			Currency string     `json:"currency"`
		} `json:"price"`
		Itineraries []struct {
			Segments []struct {
				Departure struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
			} `json:"segments"`
		} `json:"itineraries"`
		PricingOptions struct {
			RefundableFare *bool `json:"refundableFare"`
		} `json:"pricingOptions"`
	} `json:"data"`
}

// FlightOffers searches one-way offers. Only the first itinerary's legs are kept.
func (c *AmadeusClient) FlightOffers(ctx context.Context, origin, destination, date string) ([]RawFlight, error) {
	params := url.Values{}
	params.Set("originLocationCode", origin)
	params.Set("destinationLocationCode", destination)
	params.Set("departureDate", date)
	params.Set("adults", strconv.Itoa(defaultFlightSeats))

	var raw flightOffersResponse
	if err := c.doGet(ctx, "/v2/shopping/flight-offers", params, &raw); err != nil {
		return nil, fmt.Errorf("amadeus flight search %s-%s on %s: %w", origin, destination, date, err)
	}

	flights := make([]RawFlight, 0, len(raw.Data))
	for _, d := range raw.Data {
		f := RawFlight{
			PriceTotal: string(d.Price.Total),
			Currency:   d.Price.Currency,
			Refundable: d.PricingOptions.RefundableFare,
		}
		if len(d.Itineraries) > 0 {
			for _, s := range d.Itineraries[0].Segments {
				f.Segments = append(f.Segments, RawSegment{
					From:     s.Departure.IATACode,
					To:       s.Arrival.IATACode,
					DepartAt: s.Departure.At,
					ArriveAt: s.Arrival.At,
					Carrier:  s.CarrierCode,
					Number:   s.Number,
				})
			}
		}
		flights = append(flights, f)
	}
	return flights, nil
}

// ---- Hotels ----

type hotelsByCityResponse struct {
	Data []struct {
		HotelID string `json:"hotelId"`
	} `json:"data"`
}

// HotelIDsByCity lists the hotel identifiers registered for a city code.
func (c *AmadeusClient) HotelIDsByCity(ctx context.Context, cityCode string) ([]string, error) {
	params := url.Values{}
	params.Set("cityCode", cityCode)

	var raw hotelsByCityResponse
	if err := c.doGet(ctx, "/v1/reference-data/locations/hotels/by-city", params, &raw); err != nil {
		return nil, fmt.Errorf("amadeus hotel list for %s: %w", cityCode, err)
	}

	ids := make([]string, 0, len(raw.Data))
	for _, d := range raw.Data {
		if d.HotelID != "" {
			ids = append(ids, d.HotelID)
		}
	}
	return ids, nil
}

type hotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			HotelID   string     `json:"hotelId"`
			Name      string     `json:"name"`
			Rating    flexString `json:"rating"`
			Latitude  *float64   `json:"latitude"`
			Longitude *float64   `json:"longitude"`
			Amenities []string   `json:"amenities"`
		} `json:"hotel"`
		Offers []struct {
			Price struct {
				Total      flexString `json:"total"`
				Currency   string     `json:"currency"`
				Variations struct {
					Average struct {
						Base flexString `json:"base"`
					} `json:"average"`
				} `json:"variations"`
			} `json:"price"`
			Policies struct {
				Cancellation struct {
					Description struct {
						Text string `json:"text"`
					} `json:"description"`
				} `json:"cancellation"`
			} `json:"policies"`
			Self string `json:"self"`
		} `json:"offers"`
	} `json:"data"`
}

// HotelOffers fetches the best rate per hotel for the given stay.
func (c *AmadeusClient) HotelOffers(ctx context.Context, hotelIDs []string, checkIn, checkOut string, adults int) ([]RawHotel, error) {
	params := url.Values{}
	params.Set("hotelIds", strings.Join(hotelIDs, ","))
	params.Set("checkInDate", checkIn)
	params.Set("checkOutDate", checkOut)
	params.Set("adults", strconv.Itoa(adults))
	params.Set("roomQuantity", "1")
	params.Set("bestRateOnly", "true")
	params.Set("view", "FULL")

	var raw hotelOffersResponse
	if err := c.doGet(ctx, "/v3/shopping/hotel-offers", params, &raw); err != nil {
		return nil, fmt.Errorf("amadeus hotel offers %s..%s: %w", checkIn, checkOut, err)
	}

	hotels := make([]RawHotel, 0, len(raw.Data))
	for _, d := range raw.Data {
		h := RawHotel{
			HotelID:   d.Hotel.HotelID,
			Name:      d.Hotel.Name,
			Rating:    string(d.Hotel.Rating),
			Lat:       d.Hotel.Latitude,
			Lng:       d.Hotel.Longitude,
			Amenities: d.Hotel.Amenities,
		}
		if len(h.Amenities) > maxHotelAmenities {
			h.Amenities = h.Amenities[:maxHotelAmenities]
		}
		if len(d.Offers) > 0 {
			best := d.Offers[0]
			h.Total = string(best.Price.Total)
			h.Currency = best.Price.Currency
			h.NightlyBase = string(best.Price.Variations.Average.Base)
			h.Cancellation = best.Policies.Cancellation.Description.Text
			h.BookingURL = best.Self
		}
		hotels = append(hotels, h)
	}
	return hotels, nil
}

// ---- Activities ----

type activitiesResponse struct {
	Data []struct {
		ID               string          `json:"id"`
		Name             string          `json:"name"`
		ShortDescription string          `json:"shortDescription"`
		Rating           flexString      `json:"rating"`
		BookingLink      string          `json:"bookingLink"`
		Self             json.RawMessage `json:"self"`
		GeoCode          geoCode         `json:"geoCode"`
		Price            struct {
			Amount       flexString `json:"amount"`
			CurrencyCode string     `json:"currencyCode"`
		} `json:"price"`
	} `json:"data"`
}

// selfLink extracts a link from a "self" field that is either a string or {"href": ...}.
func selfLink(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Href string `json:"href"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Href
	}
	return ""
}

// Activities lists tours and activities around a coordinate.
func (c *AmadeusClient) Activities(ctx context.Context, lat, lng float64) ([]RawActivity, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))

	var raw activitiesResponse
	if err := c.doGet(ctx, "/v1/shopping/activities", params, &raw); err != nil {
		return nil, fmt.Errorf("amadeus activities near %f,%f: %w", lat, lng, err)
	}

	activities := make([]RawActivity, 0, len(raw.Data))
	for _, d := range raw.Data {
		link := d.BookingLink
		if link == "" {
			link = selfLink(d.Self)
		}
		activities = append(activities, RawActivity{
			ID:          d.ID,
			Name:        d.Name,
			Amount:      string(d.Price.Amount),
			Currency:    d.Price.CurrencyCode,
			Rating:      string(d.Rating),
			Description: d.ShortDescription,
			BookingURL:  link,
			Lat:         d.GeoCode.Latitude,
			Lng:         d.GeoCode.Longitude,
		})
	}
	return activities, nil
}
