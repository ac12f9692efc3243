// Package client manages the communication clients that plugin instances
// are bound to.
//
// A Client is a process-wide shared collaborator identified by its user
// ID: it carries the identity token, the underlying protocol connection,
// and the HTTP transport that a plugin instance uses to talk to the
// outside world. Clients are referenced, never owned, by instances; the
// registry tracks those references so a client in use cannot be removed.
package client

import (
	"errors"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/plugbot/plugbot/refs"
)

// Common errors returned by the client registry.
var (
	// ErrNotFound is returned when no client is registered for a user.
	ErrNotFound = errors.New("client: not found")

	// ErrExists is returned when registering a client for a user that
	// already has one.
	ErrExists = errors.New("client: already registered")

	// ErrInUse is returned when removing a client that instances still
	// reference.
	ErrInUse = errors.New("client: still referenced by instances")
)

// Client is a bound communication identity shared by every instance whose
// primary user matches UserID.
//
// The protocol connection and HTTP transport are passed opaquely into
// plugin runtimes; this package never drives them itself.
type Client struct {
	// UserID identifies the account this client is authenticated as.
	UserID string

	// Token is the session identity token. Assigned on registration if
	// empty.
	Token string

	// Conn is the underlying protocol connection.
	Conn *grpc.ClientConn

	// HTTP is the transport handle for plain HTTP calls.
	HTTP *http.Client
}

// Registry holds the process-wide set of clients, keyed by user ID, with
// a reverse-reference set per client. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	client *Client
	refs   *refs.Set
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Put registers a client under its user ID. Returns ErrExists if the user
// already has a client.
func (r *Registry) Put(c *Client) error {
	if c == nil || c.UserID == "" {
		return errors.New("client: user ID cannot be empty")
	}
	if c.HTTP == nil {
		c.HTTP = http.DefaultClient
	}
	if c.Token == "" {
		c.Token = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[c.UserID]; ok {
		return ErrExists
	}
	r.entries[c.UserID] = &entry{client: c, refs: refs.NewSet()}
	return nil
}

// Get returns the client registered for the given user.
func (r *Registry) Get(userID string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return e.client, nil
}

// Refs returns the reverse-reference set for the given user's client.
func (r *Registry) Refs(userID string) (*refs.Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return e.refs, nil
}

// Remove deletes the client for the given user. Refuses with ErrInUse
// while any instance still references it.
func (r *Registry) Remove(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return ErrNotFound
	}
	if e.refs.Len() > 0 {
		return ErrInUse
	}
	delete(r.entries, userID)
	return nil
}

// UserIDs returns the registered user IDs in sorted order.
func (r *Registry) UserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
