package services

import (
	"sync"

	"event-wallboard/models"
)

// EventStore owns the received events, in arrival order, and the set of
// event IDs already seen. It is constructed once and handed to whoever
// needs it; nothing in the process writes to it, so both collections stay
// empty for the process lifetime.
type EventStore struct {
	mu     sync.RWMutex
	events []models.Event
	seen   map[string]struct{}
}

// NewEventStore creates an empty store
func NewEventStore() *EventStore {
	return &EventStore{
		events: make([]models.Event, 0),
		seen:   make(map[string]struct{}),
	}
}

// Events returns a copy of the stored events in arrival order
func (s *EventStore) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of stored events
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// SeenCount returns the number of distinct event IDs seen
func (s *EventStore) SeenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// HasSeen reports whether id is in the seen set
func (s *EventStore) HasSeen(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[id]
	return ok
}
