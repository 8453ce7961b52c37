package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripsearch/internal/offer"
	"github.com/neexbeast/tripsearch/internal/session"
)

func TestItineraryStore_SaveAndGet(t *testing.T) {
	s := session.NewItineraryStore()
	days := offer.Itinerary{{Day: 1, Activities: []string{"Colosseum", "Dinner at a local restaurant"}}}

	saved := s.Save("req-1", "Rome", days)
	require.NotEmpty(t, saved.ID)
	assert.False(t, saved.SavedAt.IsZero())

	got, ok := s.Get(saved.ID)
	require.True(t, ok)
	assert.Equal(t, saved, got)
	assert.Equal(t, days, got.Days)
}

func TestItineraryStore_DistinctIDs(t *testing.T) {
	s := session.NewItineraryStore()

	a := s.Save("", "Rome", nil)
	b := s.Save("", "Rome", nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestItineraryStore_Miss(t *testing.T) {
	_, ok := session.NewItineraryStore().Get("missing")
	assert.False(t, ok)
}
