// Package loader resolves plugin type identifiers to loadable code and
// packaged resources.
//
// A Loader is a process-wide shared collaborator identified by its plugin
// ID, which is the same string instances store as their type. The registry
// tracks which instances reference each loader so code still in use cannot
// be unregistered. How plugin code actually gets loaded is the loader's
// business; StaticLoader serves plugins compiled into the host.
package loader

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/plugbot/plugbot/plugin"
	"github.com/plugbot/plugbot/refs"
)

// Common errors returned by the loader registry.
var (
	// ErrNotFound is returned when no loader is registered for a plugin
	// type.
	ErrNotFound = errors.New("loader: not found")

	// ErrExists is returned when registering a loader whose ID is taken.
	ErrExists = errors.New("loader: already registered")

	// ErrInUse is returned when unregistering a loader that instances
	// still reference.
	ErrInUse = errors.New("loader: still referenced by instances")
)

// Meta identifies a loader for logging and listings.
type Meta struct {
	// ID is the plugin type identifier (e.g., "bot.echo").
	ID string

	// Version is the plugin code version.
	Version string
}

// Loader provides access to one plugin's code and packaged files.
type Loader interface {
	// Meta returns the loader's identity.
	Meta() Meta

	// Load resolves the plugin's factory. May block while fetching or
	// compiling code.
	Load(ctx context.Context) (plugin.Factory, error)

	// ReadFile returns the contents of a file packaged with the plugin.
	// Absent files are reported with errors satisfying
	// errors.Is(err, fs.ErrNotExist).
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

// Registry holds the process-wide set of loaders, keyed by plugin ID,
// with a reverse-reference set per loader. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	loader Loader
	refs   *refs.Set
}

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a loader under its plugin ID. Returns ErrExists if the ID
// is already taken.
func (r *Registry) Register(l Loader) error {
	if l == nil || l.Meta().ID == "" {
		return errors.New("loader: ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := l.Meta().ID
	if _, ok := r.entries[id]; ok {
		return ErrExists
	}
	r.entries[id] = &entry{loader: l, refs: refs.NewSet()}
	return nil
}

// Resolve returns the loader for the given plugin type.
func (r *Registry) Resolve(typ string) (Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[typ]
	if !ok {
		return nil, ErrNotFound
	}
	return e.loader, nil
}

// Refs returns the reverse-reference set for the given plugin type.
func (r *Registry) Refs(typ string) (*refs.Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[typ]
	if !ok {
		return nil, ErrNotFound
	}
	return e.refs, nil
}

// Unregister removes the loader for the given plugin type. Refuses with
// ErrInUse while any instance still references it.
func (r *Registry) Unregister(typ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[typ]
	if !ok {
		return ErrNotFound
	}
	if e.refs.Len() > 0 {
		return ErrInUse
	}
	delete(r.entries, typ)
	return nil
}

// IDs returns the registered plugin type identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
