package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest is returned when a request fails structural validation. It is the
// only error Search returns.
var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Origin is where the trip starts. An empty code falls back to the configured default.
type Origin struct {
	Code string `json:"iata,omitempty" validate:"omitempty,len=3,alpha"`
	City string `json:"city,omitempty"`
}

// Destination needs a city name or a code. Explicit coordinates skip the coordinate lookup.
type Destination struct {
	Code    string   `json:"iata,omitempty" validate:"omitempty,len=3,alpha"`
	City    string   `json:"city,omitempty" validate:"required_without=Code"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng     *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
}

// DateRange holds ISO dates (YYYY-MM-DD).
type DateRange struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// Travelers describes the party.
type Travelers struct {
	Adults int `json:"adults" validate:"min=1"`
}

// TripRequest is the input of Search.
type TripRequest struct {
	Origin      Origin      `json:"origin"`
	Destination Destination `json:"destination"`
	Dates       DateRange   `json:"dates"`
	Travelers   Travelers   `json:"travelers"`
}

// Validate reports structural problems as an error wrapping ErrInvalidRequest.
func (r TripRequest) Validate() error {
	return check(r)
}

// DestinationName is the label used in warnings and itinerary text.
func (r TripRequest) DestinationName() string {
	if name := strings.TrimSpace(r.Destination.City); name != "" {
		return name
	}
	if code := strings.TrimSpace(r.Destination.Code); code != "" {
		return strings.ToUpper(code)
	}
	return "Destination"
}

// PlanRequest is the input of PlanTrip.
type PlanRequest struct {
	Destination     string `json:"destination" validate:"required"`
	DestinationCode string `json:"destination_iata,omitempty" validate:"omitempty,len=3,alpha"`
	Origin          string `json:"origin,omitempty" validate:"omitempty,len=3,alpha"`
	DepartureDate   string `json:"departure_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Days            int    `json:"days,omitempty" validate:"omitempty,min=1,max=30"`
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
