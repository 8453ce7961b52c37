package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/neexbeast/tripsearch/internal/offer"
)

// DefaultBookingBaseURL is where redirect bookings are sent when none is configured.
const DefaultBookingBaseURL = "https://www.tripcanvas.site/booking"

const genericPolicy = "Free cancellation within 24 hours, then provider policy applies."

// Contact is optional traveler contact data passed along with a booking.
type Contact struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// BookingRequest is the input of StartBooking.
type BookingRequest struct {
	OfferType string   `json:"offer_type" validate:"required,oneof=flight hotel activity"`
	OfferID   string   `json:"offer_id" validate:"required"`
	Contact   *Contact `json:"traveler_contact,omitempty"`
}

// BookingResponse tells the caller how to continue a booking.
type BookingResponse struct {
	Status          string   `json:"status"`
	BookingMode     string   `json:"booking_mode"`
	BookingURL      string   `json:"booking_url,omitempty"`
	ProviderOrderID *string  `json:"provider_order_id"`
	MissingFields   []string `json:"missing_fields"`
}

// StartBooking hands the traveler off to the booking site. No order is placed.
func StartBooking(baseURL string, req BookingRequest) (BookingResponse, error) {
	if err := check(req); err != nil {
		return BookingResponse{}, err
	}
	if baseURL == "" {
		baseURL = DefaultBookingBaseURL
	}
	return BookingResponse{
		Status:        "ready",
		BookingMode:   "redirect",
		BookingURL:    strings.TrimRight(baseURL, "/") + "/" + req.OfferType + "/" + url.PathEscape(req.OfferID),
		MissingFields: []string{},
	}, nil
}

// PolicySummary describes the cancellation terms of one offer.
type PolicySummary struct {
	OfferID       string `json:"offer_id"`
	Refundable    *bool  `json:"refundable"`
	PolicySummary string `json:"policy_summary"`
}

// parseOfferID splits "<kind>_<request id>_<index>".
func parseOfferID(offerID string) (kind, requestID string, ok bool) {
	kind, rest, found := strings.Cut(offerID, "_")
	if !found {
		return "", "", false
	}
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", "", false
	}
	return kind, rest[:i], true
}

// PolicySummary looks the offer up in the response it was issued with. Offers the
// store does not know get the generic policy text with unknown refundability.
func (s *Service) PolicySummary(ctx context.Context, offerID string) (PolicySummary, error) {
	summary := PolicySummary{OfferID: offerID, PolicySummary: genericPolicy}

	kind, requestID, ok := parseOfferID(offerID)
	if !ok {
		return summary, nil
	}

	resp, found, err := s.Lookup(ctx, requestID)
	if err != nil {
		return PolicySummary{}, fmt.Errorf("loading offers for %s: %w", offerID, err)
	}
	if !found {
		return summary, nil
	}

	switch kind {
	case "flight":
		for _, f := range resp.Flights {
			if f.ID == offerID {
				summary.Refundable = f.Refundable
				summary.PolicySummary = orGeneric(f.FareRulesSummary)
			}
		}
	case "hotel":
		for _, h := range resp.Hotels {
			if h.ID == offerID {
				summary.Refundable = h.Refundable
				summary.PolicySummary = orGeneric(h.CancellationPolicySummary)
			}
		}
	}
	return summary, nil
}

func orGeneric(s string) string {
	if strings.TrimSpace(s) == "" {
		return genericPolicy
	}
	return s
}

// ItineraryRequest is the input of BuildItinerary over HTTP.
type ItineraryRequest struct {
	Destination string   `json:"destination" validate:"required"`
	Activities  []string `json:"activities"`
	Days        int      `json:"days" validate:"omitempty,min=1,max=30"`
}

// Validate reports structural problems as an error wrapping ErrInvalidRequest.
func (r ItineraryRequest) Validate() error {
	return check(r)
}

// SaveItineraryRequest is the input of saving an itinerary.
type SaveItineraryRequest struct {
	RequestID   string          `json:"request_id,omitempty"`
	Destination string          `json:"destination" validate:"required"`
	Days        offer.Itinerary `json:"days" validate:"required,min=1,dive"`
}

// Validate reports structural problems as an error wrapping ErrInvalidRequest.
func (r SaveItineraryRequest) Validate() error {
	return check(r)
}
