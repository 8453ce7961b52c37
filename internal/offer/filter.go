package offer

import (
	"strings"

	"github.com/samber/lo"
)

// IsZero reports whether no filter is set.
func (f RefineFilters) IsZero() bool {
	return f.MaxPrice == nil &&
		len(f.AirlineWhitelist) == 0 &&
		f.HotelStarsMin == nil &&
		(f.RefundableOnly == nil || !*f.RefundableOnly) &&
		len(f.ActivityCategories) == 0
}

// Apply returns resp with every offer list narrowed by f. All set filters must hold
// (AND). Warnings, identifier and freshness are carried over untouched.
func (f RefineFilters) Apply(resp SearchResponse) SearchResponse {
	if f.IsZero() {
		return resp
	}

	return SearchResponse{
		RequestID:   resp.RequestID,
		FreshnessTS: resp.FreshnessTS,
		Flights:     lo.Filter(resp.Flights, func(o FlightOffer, _ int) bool { return f.keepFlight(o) }),
		Hotels:      lo.Filter(resp.Hotels, func(o HotelOffer, _ int) bool { return f.keepHotel(o) }),
		Activities:  lo.Filter(resp.Activities, func(o ActivityOffer, _ int) bool { return f.keepActivity(o) }),
		Warnings:    resp.Warnings,
	}
}

func (f RefineFilters) withinPrice(m Money) bool {
	return f.MaxPrice == nil || m.Amount <= f.MaxPrice.Amount
}

func (f RefineFilters) refundableOnly() bool {
	return f.RefundableOnly != nil && *f.RefundableOnly
}

func (f RefineFilters) keepFlight(o FlightOffer) bool {
	if !f.withinPrice(o.TotalPrice) {
		return false
	}
	if f.refundableOnly() && (o.Refundable == nil || !*o.Refundable) {
		return false
	}
	if len(f.AirlineWhitelist) > 0 {
		for _, s := range o.Segments {
			if !containsFold(f.AirlineWhitelist, s.Carrier) {
				return false
			}
		}
	}
	return true
}

func (f RefineFilters) keepHotel(o HotelOffer) bool {
	if !f.withinPrice(o.TotalPrice) {
		return false
	}
	if f.refundableOnly() && (o.Refundable == nil || !*o.Refundable) {
		return false
	}
	if f.HotelStarsMin != nil && (o.StarRating == nil || *o.StarRating < float64(*f.HotelStarsMin)) {
		return false
	}
	return true
}

func (f RefineFilters) keepActivity(o ActivityOffer) bool {
	if !f.withinPrice(o.TotalPrice) {
		return false
	}
	if len(f.ActivityCategories) > 0 {
		text := strings.ToLower(o.Title + " " + o.Description)
		return lo.SomeBy(f.ActivityCategories, func(c string) bool {
			c = strings.ToLower(strings.TrimSpace(c))
			return c != "" && strings.Contains(text, c)
		})
	}
	return true
}

func containsFold(list []string, v string) bool {
	return lo.SomeBy(list, func(s string) bool { return strings.EqualFold(strings.TrimSpace(s), v) })
}
