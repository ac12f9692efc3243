// Package refs provides reference sets used to track which plugin instances
// currently depend on a shared collaborator (a loader or a client).
//
// Loaders and clients are process-wide singletons that must not be removed
// while an instance still depends on them. Instead of raw back-pointers,
// each collaborator carries a Set of referencing instance IDs so that
// attachment and detachment are explicit, auditable operations.
package refs

import (
	"sort"
	"sync"
)

// Set is a concurrency-safe set of instance IDs referencing a shared
// collaborator. The zero value is not usable; use NewSet.
type Set struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewSet creates an empty reference set.
func NewSet() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Add records that the instance with the given ID references the owner of
// this set. Adding an ID that is already present is a no-op.
func (s *Set) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// Remove drops the given instance ID from the set. Removing an ID that is
// not present is a no-op.
func (s *Set) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// Has reports whether the given instance ID is in the set.
func (s *Set) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of referencing instances.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns the referencing instance IDs in sorted order.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
