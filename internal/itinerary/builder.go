package itinerary

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/neexbeast/tripsearch/internal/offer"
)

const (
	slotsPerDay = 2
	closingSlot = "Dinner at a local restaurant"
)

// DefaultCatalog holds curated activities per lowercase destination name.
var DefaultCatalog = map[string][]string{
	"tokyo": {
		"Senso-ji Temple and Asakusa walk",
		"Shibuya Crossing and Hachiko Square",
		"Meiji Shrine and Yoyogi Park",
		"Tsukiji Outer Market food tour",
		"TeamLab Planets digital art museum",
		"Tokyo Skytree sunset view",
	},
	"paris": {
		"Louvre Museum highlights",
		"Seine river walk and bookstalls",
		"Montmartre and Sacre-Coeur",
		"Eiffel Tower and Champ de Mars",
		"Le Marais cafe and gallery hopping",
		"Latin Quarter evening stroll",
	},
	"london": {
		"Westminster and St James's Park walk",
		"British Museum highlights",
		"South Bank and Borough Market",
		"Tower Bridge and Tower of London",
		"Covent Garden and Soho food walk",
		"Greenwich observatory and riverside",
	},
}

// Result is a built itinerary and, when curated content replaced live data, a warning.
type Result struct {
	Days         offer.Itinerary
	UsedFallback bool
	Warning      string
}

// Builder spreads activities across days.
type Builder struct {
	catalog map[string][]string
}

// NewBuilder constructs a Builder over a curated catalog keyed case-insensitively.
func NewBuilder(catalog map[string][]string) *Builder {
	c := make(map[string][]string, len(catalog))
	for k, v := range catalog {
		c[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Builder{catalog: c}
}

// Catalog returns the curated list for destination, or six generic entries when none exists.
func (b *Builder) Catalog(destination string) []string {
	if list, ok := b.catalog[strings.ToLower(strings.TrimSpace(destination))]; ok && len(list) > 0 {
		return list
	}
	return []string{
		fmt.Sprintf("Old town walking tour in %s", destination),
		fmt.Sprintf("Local market and food tasting in %s", destination),
		fmt.Sprintf("Top viewpoints around %s", destination),
		fmt.Sprintf("Museum and cultural district visit in %s", destination),
		fmt.Sprintf("Neighborhood cafe hopping in %s", destination),
		fmt.Sprintf("Riverside or waterfront evening walk in %s", destination),
	}
}

// Placeholder is the stand-in for an unfilled slot; slot is zero-based.
func Placeholder(destination string, day, slot int) string {
	return fmt.Sprintf("Self-guided exploration in %s (Day %d, stop %d)", destination, day, slot+1)
}

// FallbackWarning is recorded when curated content stands in for live activities.
func FallbackWarning(destination string) string {
	return fmt.Sprintf("Live activities were unavailable, so curated fallback activities are shown for %s.", destination)
}

// Build assigns two pool entries per day through a single forward cursor, pads
// exhausted slots with placeholders and closes every day with dinner. Duplicates in
// pool are dropped, first occurrence wins. days below 1 is treated as 1.
func (b *Builder) Build(destination string, pool []string, days int) Result {
	days = max(days, 1)

	entries := lo.Uniq(lo.Filter(pool, func(s string, _ int) bool { return strings.TrimSpace(s) != "" }))

	var res Result
	if len(entries) == 0 {
		entries = lo.Uniq(b.Catalog(destination))
		res.UsedFallback = true
		res.Warning = FallbackWarning(destination)
	}

	res.Days = make(offer.Itinerary, 0, days)
	cursor := 0
	for day := 1; day <= days; day++ {
		activities := make([]string, 0, slotsPerDay+1)
		for slot := 0; slot < slotsPerDay; slot++ {
			if cursor < len(entries) {
				activities = append(activities, entries[cursor])
				cursor++
				continue
			}
			activities = append(activities, Placeholder(destination, day, slot))
		}
		activities = append(activities, closingSlot)
		res.Days = append(res.Days, offer.Day{Day: day, Activities: activities})
	}

	return res
}
