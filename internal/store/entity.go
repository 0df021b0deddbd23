package store

import "sync"

// EntityStore is a last-write-wins cache of the latest known state for one
// kind of entity, keyed by entity id. Safe for concurrent use from any
// source; whichever Put lands last wins.
type EntityStore[T any] struct {
	mu      sync.RWMutex
	items   map[string]T
	subs    map[int]func(id string, v T)
	nextSub int
}

// NewEntityStore creates an empty store.
func NewEntityStore[T any]() *EntityStore[T] {
	return &EntityStore[T]{
		items: make(map[string]T),
		subs:  make(map[int]func(string, T)),
	}
}

// Put overwrites the entry for id and notifies observers.
func (s *EntityStore[T]) Put(id string, v T) {
	s.mu.Lock()
	s.items[id] = v
	observers := make([]func(string, T), 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	// Notify outside the lock so observers may read back from the store.
	for _, fn := range observers {
		fn(id, v)
	}
}

// Get returns the entry for id.
func (s *EntityStore[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	return v, ok
}

// Delete removes the entry for id.
func (s *EntityStore[T]) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Snapshot returns a copy of all entries.
func (s *EntityStore[T]) Snapshot() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]T, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// Len returns the number of entries.
func (s *EntityStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribe registers an observer called after every Put. The returned
// cancel func unregisters it.
func (s *EntityStore[T]) Subscribe(fn func(id string, v T)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
