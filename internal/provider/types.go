package provider

// RawSegment is a flight leg as reported by the upstream. Empty fields are filled in
// during normalization.
type RawSegment struct {
	From     string
	To       string
	DepartAt string
	ArriveAt string
	Carrier  string
	Number   string
}

// RawFlight is an upstream flight offer before normalization.
type RawFlight struct {
	PriceTotal string
	Currency   string
	Segments   []RawSegment
	Refundable *bool
}

// RawHotel is an upstream hotel offer before normalization.
type RawHotel struct {
	HotelID      string
	Name         string
	Total        string
	Currency     string
	NightlyBase  string
	Rating       string
	Lat          *float64
	Lng          *float64
	Amenities    []string
	Cancellation string
	BookingURL   string
}

// RawActivity is an upstream activity before normalization.
type RawActivity struct {
	ID          string
	Name        string
	Amount      string
	Currency    string
	Rating      string
	Description string
	BookingURL  string
	Lat         *float64
	Lng         *float64
}

// RawLocation is a city returned by the upstream location search.
type RawLocation struct {
	Name     string
	IATACode string
	Lat      *float64
	Lng      *float64
}
