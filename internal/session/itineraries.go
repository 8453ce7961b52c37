package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neexbeast/tripsearch/internal/offer"
)

// SavedItinerary is an itinerary a caller chose to keep, with the search it came from.
type SavedItinerary struct {
	ID          string          `json:"itinerary_id"`
	RequestID   string          `json:"request_id,omitempty"`
	Destination string          `json:"destination"`
	Days        offer.Itinerary `json:"days"`
	SavedAt     time.Time       `json:"saved_at"`
}

// ItineraryStore keeps saved itineraries in memory for the life of the process.
type ItineraryStore struct {
	mu    sync.RWMutex
	items map[string]SavedItinerary
	now   func() time.Time
}

// NewItineraryStore constructs an empty ItineraryStore.
func NewItineraryStore() *ItineraryStore {
	return &ItineraryStore{items: make(map[string]SavedItinerary), now: time.Now}
}

// Save assigns a fresh id and stores the itinerary.
func (s *ItineraryStore) Save(requestID, destination string, days offer.Itinerary) SavedItinerary {
	it := SavedItinerary{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		Destination: destination,
		Days:        days,
		SavedAt:     s.now().UTC(),
	}
	s.mu.Lock()
	s.items[it.ID] = it
	s.mu.Unlock()
	return it
}

// Get returns a saved itinerary by id.
func (s *ItineraryStore) Get(id string) (SavedItinerary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}
