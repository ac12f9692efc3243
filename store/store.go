package store

import (
	"context"
	"errors"
)

// Common errors returned by store operations.
var (
	// ErrNotFound is returned when no record exists for the requested ID.
	ErrNotFound = errors.New("store: record not found")

	// ErrInvalidID is returned when a record ID is empty or otherwise invalid.
	ErrInvalidID = errors.New("store: invalid record id")

	// ErrInvalidKey is returned when a namespace key is empty.
	ErrInvalidKey = errors.New("store: invalid key")
)

// Record is the persisted form of one plugin instance.
//
// RawConfig holds the instance's override configuration as an opaque text
// blob; only the config package interprets it. The in-memory running flag
// is deliberately absent: an instance is never running immediately after
// process start.
type Record struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Enabled     bool   `json:"enabled"`
	PrimaryUser string `json:"primary_user"`
	RawConfig   string `json:"config,omitempty"`
}

// Store provides access to persisted instance records and to per-plugin
// data namespaces.
//
// Implementations must be safe for concurrent use. Commit semantics
// (transactions, durability) are owned by the backend; callers treat each
// operation as atomic.
type Store interface {
	// Get returns the record with the given ID.
	// Returns ErrNotFound if no such record exists.
	Get(ctx context.Context, id string) (*Record, error)

	// Put inserts or replaces a record. Returns ErrInvalidID if the
	// record has no ID.
	Put(ctx context.Context, rec *Record) error

	// Delete removes the record with the given ID.
	// Returns ErrNotFound if no such record exists.
	Delete(ctx context.Context, id string) error

	// All returns every persisted record. Order is unspecified.
	All(ctx context.Context) ([]*Record, error)

	// Namespace returns the private data bucket for the plugin instance
	// with the given ID. The bucket exists lazily; reading from an
	// untouched namespace behaves like an empty one.
	Namespace(id string) Namespace

	// Close releases the backend connection.
	Close() error
}

// Namespace is a key-value bucket scoped to one plugin instance.
//
// Plugins receive their namespace at start and use it for private persisted
// state. Values are opaque strings; plugins serialize their own data.
type Namespace interface {
	// Get retrieves a value by key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value, replacing any existing value for the key.
	// Returns ErrInvalidKey if the key is empty.
	Set(ctx context.Context, key, value string) error

	// Delete removes a key. Returns ErrNotFound if absent.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys in the namespace.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every key in the namespace.
	Clear(ctx context.Context) error
}
