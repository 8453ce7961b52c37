package location

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/neexbeast/tripsearch/internal/provider"
)

// Source tells where a resolved code came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Location is a resolved destination. Coordinates are nil when only the fallback
// table produced the code.
type Location struct {
	Name   string   `json:"name"`
	Code   string   `json:"code"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
	Source Source   `json:"source"`
}

// HasCoordinates reports whether both coordinates are known.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// citySearcher is the interface satisfied by provider.AmadeusClient.
type citySearcher interface {
	SearchCities(ctx context.Context, keyword string) ([]provider.RawLocation, error)
}

// DefaultCityCodes is the built-in keyword → city code fallback table.
var DefaultCityCodes = map[string]string{
	"tokyo":         "TYO",
	"new york":      "NYC",
	"london":        "LON",
	"paris":         "PAR",
	"los angeles":   "LAX",
	"san francisco": "SFO",
	"singapore":     "SIN",
	"dubai":         "DXB",
	"rome":          "ROM",
	"milan":         "MIL",
}

// Resolver turns free text into a city code: live lookup first, then the fallback
// table, then nothing. Successful live lookups are memoized.
type Resolver struct {
	upstream  citySearcher
	fallbacks map[string]string
	memo      *gocache.Cache
	timeout   time.Duration
	log       *slog.Logger
}

// NewResolver constructs a Resolver. Fallback keys are matched case-insensitively.
// A zero memoTTL disables memoization.
func NewResolver(upstream citySearcher, fallbacks map[string]string, memoTTL, timeout time.Duration, log *slog.Logger) *Resolver {
	table := make(map[string]string, len(fallbacks))
	for k, v := range fallbacks {
		table[normalizeKey(k)] = strings.ToUpper(strings.TrimSpace(v))
	}

	r := &Resolver{upstream: upstream, fallbacks: table, timeout: timeout, log: log}
	if memoTTL > 0 {
		r.memo = gocache.New(memoTTL, 2*memoTTL)
	}
	return r
}

func normalizeKey(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// Resolve returns the location for keyword and false when neither the upstream nor
// the fallback table knows it.
func (r *Resolver) Resolve(ctx context.Context, keyword string) (Location, bool) {
	key := normalizeKey(keyword)
	if key == "" {
		return Location{}, false
	}

	if loc, ok := r.lookupLive(ctx, keyword, key); ok {
		return loc, true
	}

	return r.Fallback(keyword)
}

// Fallback consults only the static table.
func (r *Resolver) Fallback(keyword string) (Location, bool) {
	code, ok := r.fallbacks[normalizeKey(keyword)]
	if !ok || code == "" {
		return Location{}, false
	}
	return Location{Name: strings.TrimSpace(keyword), Code: code, Source: SourceFallback}, true
}

func (r *Resolver) lookupLive(ctx context.Context, keyword, key string) (Location, bool) {
	if r.memo != nil {
		if v, ok := r.memo.Get(key); ok {
			return v.(Location), true
		}
	}
	if r.upstream == nil {
		return Location{}, false
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	results, err := r.upstream.SearchCities(ctx, keyword)
	if err != nil {
		r.log.Warn("location lookup failed", "keyword", keyword, "err", err)
		return Location{}, false
	}
	// Upstream order is taken as relevance order.
	if len(results) == 0 || strings.TrimSpace(results[0].IATACode) == "" {
		r.log.Info("location lookup inconclusive", "keyword", keyword, "results", len(results))
		return Location{}, false
	}

	first := results[0]
	loc := Location{
		Name:   first.Name,
		Code:   strings.ToUpper(strings.TrimSpace(first.IATACode)),
		Lat:    first.Lat,
		Lng:    first.Lng,
		Source: SourceLive,
	}
	if loc.Name == "" {
		loc.Name = strings.TrimSpace(keyword)
	}

	if r.memo != nil {
		r.memo.SetDefault(key, loc)
	}
	return loc, true
}
