package provider

import (
	"errors"
	"fmt"
)

// Kind classifies why a gateway call produced no data.
type Kind string

const (
	KindUnavailable    Kind = "UPSTREAM_UNAVAILABLE"
	KindMalformedInput Kind = "MALFORMED_INPUT"
	KindEmpty          Kind = "EMPTY"
)

// Operation names used in Error.Op.
const (
	OpFlights    = "flights"
	OpHotels     = "hotels"
	OpActivities = "activities"
)

// Error is returned by Gateway in place of the upstream's own error. Callers collapse it
// into an empty result plus a warning.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf reports the Kind carried by err, or "" when err is not a gateway error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
