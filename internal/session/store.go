package session

import (
	"context"
	"sync"

	"github.com/neexbeast/tripsearch/internal/offer"
)

// UpdateFunc derives the replacement for a stored response.
type UpdateFunc func(current offer.SearchResponse) offer.SearchResponse

// MemoryStore keeps search responses for the life of the process. The map is
// unbounded: nothing is evicted, which is fine for demo-scale traffic but grows with
// every search. Use RedisStore when entries must expire.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]offer.SearchResponse
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]offer.SearchResponse)}
}

// Save stores resp under its request id, replacing any previous value.
func (s *MemoryStore) Save(_ context.Context, resp offer.SearchResponse) error {
	s.mu.Lock()
	s.entries[resp.RequestID] = resp
	s.mu.Unlock()
	return nil
}

// Get returns the stored response and whether it exists.
func (s *MemoryStore) Get(_ context.Context, requestID string) (offer.SearchResponse, bool, error) {
	s.mu.RLock()
	resp, ok := s.entries[requestID]
	s.mu.RUnlock()
	return resp, ok, nil
}

// Update applies fn to the stored response and stores the result. The read and the
// write happen under one lock, so concurrent updates of a key apply one after the
// other and the last one wins.
func (s *MemoryStore) Update(_ context.Context, requestID string, fn UpdateFunc) (offer.SearchResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[requestID]
	if !ok {
		return offer.SearchResponse{}, false, nil
	}
	next := fn(current)
	next.RequestID = requestID
	s.entries[requestID] = next
	return next, true, nil
}

// Len reports the number of stored responses.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
