package journal

import (
	"context"
	"sync"
)

// MemoryStore keeps events in memory. It is safe for concurrent use and is
// the default store for tests and short-lived simulations.
type MemoryStore struct {
	mu      sync.RWMutex
	events  []*Event
	streams map[string]int
	closed  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string]int)}
}

// Append assigns sequence numbers and appends the events in order.
func (s *MemoryStore) Append(_ context.Context, events ...*Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, e := range events {
		s.streams[e.Stream]++
		e.Seq = s.streams[e.Stream]
		s.events = append(s.events, e)
	}
	return nil
}

// Read returns one stream's events with Seq >= from.
func (s *MemoryStore) Read(_ context.Context, stream string, from int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []*Event
	for _, e := range s.events {
		if e.Stream == stream && e.Seq >= from {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReadAll returns every event passing the filter, in append order.
func (s *MemoryStore) ReadAll(_ context.Context, filter Filter) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []*Event
	for _, e := range s.events {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// StreamSeq returns the highest assigned sequence number of a stream.
func (s *MemoryStore) StreamSeq(_ context.Context, stream string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.streams[stream], nil
}

// Close marks the store closed; subsequent operations fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
