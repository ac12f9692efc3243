package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plugbot/plugbot/client"
	"github.com/plugbot/plugbot/loader"
	"github.com/plugbot/plugbot/plugin"
	"github.com/plugbot/plugbot/store"
)

// Common errors returned by the registry.
var (
	// ErrNotFound is returned when no instance record exists for an ID.
	ErrNotFound = errors.New("instance: not found")

	// ErrExists is returned when creating an instance whose ID is taken.
	ErrExists = errors.New("instance: already exists")

	// ErrRunning is returned when deleting an instance that is still
	// running.
	ErrRunning = errors.New("instance: still running")
)

// Deps are the process-wide collaborators shared by every instance. They
// are injected once at bootstrap; the registry never rebinds them.
type Deps struct {
	// Store persists instance records and plugin namespaces. Required.
	Store store.Store

	// Loaders resolves plugin types to code. Required.
	Loaders *loader.Registry

	// Clients resolves primary users to communication clients. Required.
	Clients *client.Registry

	// Logger is the parent logger; each instance derives a child scoped
	// to its ID. Defaults to slog.Default.
	Logger *slog.Logger

	// Tracer records lifecycle spans. Defaults to a no-op tracer.
	Tracer trace.Tracer

	// Sched runs plugin background work. Defaults to plain goroutines.
	Sched plugin.Scheduler
}

// Registry owns the canonical mapping from instance ID to live Instance.
//
// At most one live Instance exists per ID within a process: lookups are
// create-or-fetch operations under the registry lock, so concurrent Get
// calls for the same ID always return the identical object.
type Registry struct {
	deps Deps

	mu    sync.RWMutex
	cache map[string]*Instance

	// createMu serializes Create so the existence check and the record
	// insert are atomic with respect to other Creates.
	createMu sync.Mutex
}

// NewRegistry creates a registry around the given shared collaborators.
func NewRegistry(deps Deps) (*Registry, error) {
	if deps.Store == nil {
		return nil, errors.New("instance: store is required")
	}
	if deps.Loaders == nil {
		return nil, errors.New("instance: loader registry is required")
	}
	if deps.Clients == nil {
		return nil, errors.New("instance: client registry is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("github.com/plugbot/plugbot/instance")
	}
	if deps.Sched == nil {
		deps.Sched = goScheduler{}
	}
	return &Registry{deps: deps, cache: make(map[string]*Instance)}, nil
}

// Get returns the live instance for the given ID, materializing it from
// the persisted record on first lookup. Returns ErrNotFound if no record
// exists.
func (r *Registry) Get(ctx context.Context, id string) (*Instance, error) {
	r.mu.RLock()
	inst, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return inst, nil
	}

	rec, err := r.deps.Store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r.attach(rec), nil
}

// attach is the create-or-fetch step: under the lock, a concurrent
// materialization of the same ID wins and its instance is returned, so no
// duplicate is ever constructed.
func (r *Registry) attach(rec *store.Record) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.cache[rec.ID]; ok {
		return inst
	}
	inst := newInstance(r, rec)
	r.cache[rec.ID] = inst
	return inst
}

// All returns one live instance per persisted record, routed through the
// cache so identity holds.
func (r *Registry) All(ctx context.Context) ([]*Instance, error) {
	recs, err := r.deps.Store.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Instance, 0, len(recs))
	for _, rec := range recs {
		out = append(out, r.attach(rec))
	}
	return out, nil
}

// Create installs a new instance: it persists the record (enabled by
// default, with an empty override config) and returns the live instance.
func (r *Registry) Create(ctx context.Context, id, typ, primaryUser string) (*Instance, error) {
	if id == "" {
		return nil, errors.New("instance: ID cannot be empty")
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	if _, err := r.Get(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, id)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rec := &store.Record{ID: id, Type: typ, Enabled: true, PrimaryUser: primaryUser}
	if err := r.deps.Store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return r.attach(rec), nil
}

// Delete removes the instance's persisted record, detaches it from its
// loader's and client's reverse-reference sets, clears the plugin's
// private data namespace, and evicts it from the cache.
//
// A running instance must be stopped first; Delete refuses with
// ErrRunning rather than tearing down live plugin code implicitly.
func (r *Registry) Delete(ctx context.Context, inst *Instance) error {
	// The running check must happen under the lifecycle lock: a Delete
	// racing an in-flight Start would otherwise pass the check before the
	// start completes and then tear down a running instance.
	inst.mu.Lock()
	if inst.running.Load() {
		inst.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRunning, inst.ID())
	}
	id := inst.ID()
	if inst.loader != nil {
		if set, err := r.deps.Loaders.Refs(inst.Type()); err == nil {
			set.Remove(id)
		}
		inst.loader = nil
	}
	if inst.client != nil {
		if set, err := r.deps.Clients.Refs(inst.PrimaryUser()); err == nil {
			set.Remove(id)
		}
		inst.client = nil
	}
	inst.mu.Unlock()

	if err := r.deps.Store.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	// Cascade: the plugin's private data goes with the instance.
	if err := r.deps.Store.Namespace(id).Clear(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()
	return nil
}

// goScheduler is the default scheduler: plain goroutines with a background
// context.
type goScheduler struct{}

func (goScheduler) Go(fn func(ctx context.Context)) {
	go fn(context.Background())
}
