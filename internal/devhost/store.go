// Package devhost is an in-process stand-in for the visualization host. It
// keeps an ordered workspace in memory, serves the host JSON-RPC methods
// over HTTP and pushes events to subscribed plugins over a websocket.
package devhost

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dusk-indust/mergeframes/internal/structure"
	"github.com/google/uuid"
)

// ErrEntryNotFound is returned when an operation names an unknown entry.
var ErrEntryNotFound = errors.New("entry not found")

// record is one workspace entry plus its host-side selection flag.
type record struct {
	entry    *structure.Complex
	selected bool
}

// Store is a concurrency-safe in-memory workspace. Entries are stored in a map
// keyed by ID with a separate slice maintaining insertion order, which is the
// order the entry list reports.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*record
	orderIDs []string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		entries:  make(map[string]*record),
		orderIDs: make([]string, 0),
	}
}

// Add stores a deep copy of c and returns its ID. Entries without an ID, or
// whose ID is already taken, get a fresh UUID.
func (s *Store) Add(c *structure.Complex, selected bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := c.Clone()
	if _, taken := s.entries[cp.ID]; cp.ID == "" || taken {
		cp.ID = uuid.NewString()
	}
	s.entries[cp.ID] = &record{entry: cp, selected: selected}
	s.orderIDs = append(s.orderIDs, cp.ID)
	return cp.ID
}

// List returns the summary of every entry in insertion order.
func (s *Store) List() []structure.EntrySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]structure.EntrySummary, 0, len(s.orderIDs))
	for _, id := range s.orderIDs {
		r := s.entries[id]
		out = append(out, structure.EntrySummary{
			ID:       id,
			Name:     r.entry.Name,
			Selected: r.selected,
		})
	}
	return out
}

// Fetch returns deep copies of the entries with the given IDs, in the order
// requested.
func (s *Store) Fetch(ids []string) ([]*structure.Complex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*structure.Complex, 0, len(ids))
	for _, id := range ids {
		r, ok := s.entries[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrEntryNotFound, id)
		}
		out = append(out, r.entry.Clone())
	}
	return out, nil
}

// Remove deletes the entries with the given IDs. Nothing is removed if any ID
// is unknown.
func (s *Store) Remove(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.entries[id]; !ok {
			return fmt.Errorf("%w: %q", ErrEntryNotFound, id)
		}
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		delete(s.entries, id)
		drop[id] = true
	}
	kept := s.orderIDs[:0]
	for _, id := range s.orderIDs {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.orderIDs = kept
	return nil
}

// Select sets the selection flag of the given entries.
func (s *Store) Select(ids []string, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.entries[id]; !ok {
			return fmt.Errorf("%w: %q", ErrEntryNotFound, id)
		}
	}
	for _, id := range ids {
		s.entries[id].selected = selected
	}
	return nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orderIDs)
}
