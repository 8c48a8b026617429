// Package reconcile merges optimistic local mutations, server
// confirmations, and realtime change events into one consistent,
// deduplicated, ordered view of an owner's bookmarks.
package reconcile

import (
	"sort"
	"sync"

	"github.com/mgaultier/marks/internal/domain"
)

// Item is the view-model entry: a bookmark plus a transient syncing
// flag for optimistic items awaiting server confirmation. The flag has
// no ownership meaning, it only drives rendering and action guards.
type Item struct {
	domain.Bookmark
	Syncing bool
}

// Store holds the current ordered list of items, newest first, with at
// most one item per id, plus the per-item pending flags acting as soft
// locks against conflicting local actions.
// Reads are safe from any goroutine; mutations are serialized by the
// Engine's loop.
type Store struct {
	mu            sync.RWMutex
	items         []Item
	pendingUpdate map[string]bool
	pendingDelete map[string]bool
}

// NewStore creates a store seeded with an initial server-provided list
func NewStore(initial []*domain.Bookmark) *Store {
	items := make([]Item, 0, len(initial))
	for _, bookmark := range initial {
		items = append(items, Item{Bookmark: *bookmark})
	}
	s := &Store{
		items:         items,
		pendingUpdate: make(map[string]bool),
		pendingDelete: make(map[string]bool),
	}
	s.sortLocked()
	return s
}

// Items returns a snapshot copy of the current list, newest first
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.items...)
}

// Get retrieves an item by id
func (s *Store) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Len returns the number of items in the view
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Upsert is the single merge primitive: replace the item with the same
// id in place, or prepend it, then restore ordering. Realtime inserts,
// realtime updates, optimistic placement and post-confirmation
// replacement all go through here, so duplicate-handling can never
// diverge between paths.
func (s *Store) Upsert(incoming Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(incoming)
}

// Remove filters the item with the given id out of the view and
// returns it so a failed delete can restore it.
func (s *Store) Remove(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			removed := item
			s.items = append(s.items[:i], s.items[i+1:]...)
			return removed, true
		}
	}
	return Item{}, false
}

// Replace removes the item with removeID and upserts incoming in one
// transition, so observers never see the temporary and the confirmed
// item side by side (nor neither).
func (s *Store) Replace(removeID string, incoming Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == removeID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.upsertLocked(incoming)
}

// MarkPendingUpdate flags an id as having an update in flight
func (s *Store) MarkPendingUpdate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingUpdate[id] = true
}

// ClearPendingUpdate removes the in-flight update flag
func (s *Store) ClearPendingUpdate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingUpdate, id)
}

// IsPendingUpdate reports whether an update is in flight for id
func (s *Store) IsPendingUpdate(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingUpdate[id]
}

// MarkPendingDelete flags an id as having a delete in flight
func (s *Store) MarkPendingDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDelete[id] = true
}

// ClearPendingDelete removes the in-flight delete flag
func (s *Store) ClearPendingDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingDelete, id)
}

// IsPendingDelete reports whether a delete is in flight for id
func (s *Store) IsPendingDelete(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingDelete[id]
}

func (s *Store) upsertLocked(incoming Item) {
	replaced := false
	for i, item := range s.items {
		if item.ID == incoming.ID {
			s.items[i] = incoming
			replaced = true
			break
		}
	}
	if !replaced {
		s.items = append([]Item{incoming}, s.items...)
	}
	s.sortLocked()
}

// sortLocked keeps the list ordered by creation time descending.
// The sort is stable, so items with equal timestamps keep their
// insertion order.
func (s *Store) sortLocked() {
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].CreatedAt.After(s.items[j].CreatedAt)
	})
}
