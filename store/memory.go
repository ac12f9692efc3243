package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store implementation.
//
// It keeps records and namespaces in maps guarded by a mutex. Nothing
// survives process exit; use it for tests and for hosts that do not need
// durable instance state.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]Record
	namespaces map[string]map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    make(map[string]Record),
		namespaces: make(map[string]map[string]string),
	}
}

// Get returns the record with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec
	return &out, nil
}

// Put inserts or replaces a record.
func (s *MemoryStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	return nil
}

// Delete removes the record with the given ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// All returns every persisted record sorted by ID.
func (s *MemoryStore) All(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		r := rec
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Namespace returns the private data bucket for the given instance ID.
func (s *MemoryStore) Namespace(id string) Namespace {
	return &memoryNamespace{store: s, id: id}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

type memoryNamespace struct {
	store *MemoryStore
	id    string
}

func (n *memoryNamespace) bucket(create bool) map[string]string {
	b, ok := n.store.namespaces[n.id]
	if !ok && create {
		b = make(map[string]string)
		n.store.namespaces[n.id] = b
	}
	return b
}

func (n *memoryNamespace) Get(ctx context.Context, key string) (string, error) {
	n.store.mu.RLock()
	defer n.store.mu.RUnlock()

	v, ok := n.bucket(false)[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (n *memoryNamespace) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	n.bucket(true)[key] = value
	return nil
}

func (n *memoryNamespace) Delete(ctx context.Context, key string) error {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()

	b := n.bucket(false)
	if _, ok := b[key]; !ok {
		return ErrNotFound
	}
	delete(b, key)
	return nil
}

func (n *memoryNamespace) Keys(ctx context.Context) ([]string, error) {
	n.store.mu.RLock()
	defer n.store.mu.RUnlock()

	b := n.bucket(false)
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (n *memoryNamespace) Clear(ctx context.Context) error {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	delete(n.store.namespaces, n.id)
	return nil
}
