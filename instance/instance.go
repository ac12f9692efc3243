package instance

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/plugbot/plugbot/client"
	"github.com/plugbot/plugbot/config"
	"github.com/plugbot/plugbot/loader"
	"github.com/plugbot/plugbot/plugin"
	"github.com/plugbot/plugbot/store"
)

// Instance is one configured, independently started and stopped deployment
// of a plugin. It is a thin behavioral wrapper over its persisted record;
// the record remains the single source of truth for everything durable.
//
// Instances are created only by a Registry and are safe for concurrent
// use. Start and Stop on the same instance never overlap; different
// instances are fully independent.
type Instance struct {
	reg *Registry
	log *slog.Logger

	// recMu guards the persisted record fields.
	recMu sync.RWMutex
	rec   *store.Record

	// mu serializes lifecycle transitions (Bind, Start, Stop).
	mu      sync.Mutex
	running atomic.Bool
	loader  loader.Loader
	client  *client.Client
	plug    plugin.Plugin
}

func newInstance(reg *Registry, rec *store.Record) *Instance {
	return &Instance{
		reg: reg,
		rec: rec,
		log: reg.deps.Logger.With(slog.String("instance", rec.ID)),
	}
}

// ID returns the instance's stable identity.
func (i *Instance) ID() string {
	i.recMu.RLock()
	defer i.recMu.RUnlock()
	return i.rec.ID
}

// Type returns the plugin type identifier this instance is bound to.
func (i *Instance) Type() string {
	i.recMu.RLock()
	defer i.recMu.RUnlock()
	return i.rec.Type
}

// Enabled reports whether the instance may be started.
func (i *Instance) Enabled() bool {
	i.recMu.RLock()
	defer i.recMu.RUnlock()
	return i.rec.Enabled
}

// PrimaryUser returns the user whose client this instance binds.
func (i *Instance) PrimaryUser() string {
	i.recMu.RLock()
	defer i.recMu.RUnlock()
	return i.rec.PrimaryUser
}

// RawConfig returns the persisted override configuration blob.
func (i *Instance) RawConfig() string {
	i.recMu.RLock()
	defer i.recMu.RUnlock()
	return i.rec.RawConfig
}

// Running reports whether a live plugin runtime object exists. It is safe
// to call at any time, including while a transition is in flight.
func (i *Instance) Running() bool {
	return i.running.Load()
}

// Snapshot is the instance's externally visible state.
type Snapshot struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Enabled     bool   `json:"enabled"`
	Running     bool   `json:"running"`
	PrimaryUser string `json:"primary_user"`
}

// Snapshot returns the instance's externally visible state.
func (i *Instance) Snapshot() Snapshot {
	i.recMu.RLock()
	defer i.recMu.RUnlock()
	return Snapshot{
		ID:          i.rec.ID,
		Type:        i.rec.Type,
		Enabled:     i.rec.Enabled,
		Running:     i.running.Load(),
		PrimaryUser: i.rec.PrimaryUser,
	}
}

// SetRawConfig persists a new override configuration blob, replacing the
// stored document wholesale. The blob is not validated here; a malformed
// document surfaces on the next start.
func (i *Instance) SetRawConfig(ctx context.Context, raw string) error {
	i.recMu.Lock()
	i.rec.RawConfig = raw
	i.recMu.Unlock()
	return i.persist(ctx)
}

// SetEnabled persists the enabled flag. Re-enabling a contained instance
// is an explicit external action; no automatic retry ever happens.
func (i *Instance) SetEnabled(ctx context.Context, enabled bool) error {
	i.recMu.Lock()
	i.rec.Enabled = enabled
	i.recMu.Unlock()
	return i.persist(ctx)
}

// persist writes the current record to the store.
func (i *Instance) persist(ctx context.Context) error {
	i.recMu.RLock()
	rec := *i.rec
	i.recMu.RUnlock()
	return i.reg.deps.Store.Put(ctx, &rec)
}

// disable is the containment path: the instance stays in the registry but
// is inert until an external actor re-enables and rebinds it.
func (i *Instance) disable(ctx context.Context) error {
	i.recMu.Lock()
	i.rec.Enabled = false
	i.recMu.Unlock()
	return i.persist(ctx)
}

// Bind resolves the instance's loader by type and client by primary user,
// then registers the instance into both collaborators' reverse-reference
// sets.
//
// Resolution failures are terminal containment: the instance is disabled
// and the failure logged, never returned. The only errors Bind surfaces
// are persistence failures while recording the disabled state.
func (i *Instance) Bind(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bindLocked(ctx)
}

func (i *Instance) bindLocked(ctx context.Context) error {
	typ, user := i.Type(), i.PrimaryUser()

	ld, err := i.reg.deps.Loaders.Resolve(typ)
	if err != nil {
		i.log.Error("failed to find loader", slog.String("type", typ), slog.Any("error", err))
		return i.disable(ctx)
	}
	cl, err := i.reg.deps.Clients.Get(user)
	if err != nil {
		i.log.Error("failed to get client", slog.String("user", user), slog.Any("error", err))
		return i.disable(ctx)
	}
	i.log.Debug("instance dependencies bound")

	i.loader = ld
	i.client = cl
	if set, err := i.reg.deps.Loaders.Refs(typ); err == nil {
		set.Add(i.ID())
	}
	if set, err := i.reg.deps.Clients.Refs(user); err == nil {
		set.Add(i.ID())
	}
	return nil
}

// Start brings the instance's plugin online.
//
// Calling Start on a running or disabled instance is a warning-level
// no-op. Plugin faults (factory or start hook) disable the instance and
// are not returned. A malformed persisted configuration document is the
// one failure that propagates: corrupt data must not be silently dropped.
func (i *Instance) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.running.Load() {
		i.log.Warn("ignoring start of already running instance")
		return nil
	}
	if !i.Enabled() {
		i.log.Warn("instance disabled, not starting")
		return nil
	}
	if i.loader == nil || i.client == nil {
		if err := i.bindLocked(ctx); err != nil {
			return err
		}
		if i.loader == nil {
			// Binding failed and contained itself.
			return nil
		}
	}

	ctx, span := i.reg.deps.Tracer.Start(ctx, "instance.start", trace.WithAttributes(
		attribute.String("instance.id", i.ID()),
		attribute.String("instance.type", i.Type()),
	))
	defer span.End()

	factory, err := i.loader.Load(ctx)
	if err != nil {
		i.log.Error("failed to load plugin code", slog.Any("error", err))
		return i.disable(ctx)
	}

	var proxy *config.Proxy
	if factory.WantsConfig {
		proxy, err = i.configProxy(ctx)
		if err != nil {
			return err
		}
	}

	plug, err := factory.New(plugin.RunContext{
		ID:     i.ID(),
		Client: i.client,
		Log:    i.log,
		Config: proxy,
		Data:   i.reg.deps.Store.Namespace(i.ID()),
		Sched:  i.reg.deps.Sched,
	})
	if err != nil {
		i.log.Error("failed to construct plugin", slog.Any("error", err))
		return i.disable(ctx)
	}

	if err := plug.Start(ctx); err != nil {
		i.log.Error("failed to start instance", slog.Any("error", err))
		return i.disable(ctx)
	}

	i.plug = plug
	i.running.Store(true)

	meta := i.loader.Meta()
	i.log.Info("started instance",
		slog.String("plugin", meta.ID),
		slog.String("version", meta.Version),
		slog.String("user", i.client.UserID),
	)
	return nil
}

// configProxy builds the layered configuration handle for plugin code:
// plugin-declared base underneath, the persisted override on top, and a
// save path that rewrites the full override document.
func (i *Instance) configProxy(ctx context.Context) (*config.Proxy, error) {
	base, err := config.ResolveBase(ctx, i.loader)
	if err != nil {
		i.log.Error("failed to resolve base config", slog.Any("error", err))
		return nil, err
	}

	var baseFn func() *config.Document
	if base != nil {
		baseFn = func() *config.Document { return base }
	}

	proxy := config.NewProxy(
		func() (*config.Document, error) { return config.Parse([]byte(i.RawConfig())) },
		baseFn,
		func(doc *config.Document) error {
			data, err := doc.Marshal()
			if err != nil {
				return err
			}
			i.recMu.Lock()
			i.rec.RawConfig = string(data)
			i.recMu.Unlock()
			return i.persist(context.Background())
		},
	)
	if err := proxy.Load(); err != nil {
		i.log.Error("failed to parse instance config", slog.Any("error", err))
		return nil, err
	}
	return proxy, nil
}

// Stop takes the instance's plugin offline.
//
// Calling Stop on a non-running instance is a warning-level no-op. The
// running flag is cleared before the stop hook runs, so no observer ever
// sees a running instance whose teardown is in flight. A failing stop hook
// is logged but does not disable the instance: it is no longer advertised
// as running, which is the safe default against duplicate starts.
func (i *Instance) Stop(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running.Load() {
		i.log.Warn("ignoring stop of non-running instance")
		return nil
	}

	ctx, span := i.reg.deps.Tracer.Start(ctx, "instance.stop", trace.WithAttributes(
		attribute.String("instance.id", i.ID()),
		attribute.String("instance.type", i.Type()),
	))
	defer span.End()

	i.log.Debug("stopping instance")
	i.running.Store(false)
	if err := i.plug.Stop(ctx); err != nil {
		i.log.Error("failed to stop instance cleanly", slog.Any("error", err))
	}
	i.plug = nil
	return nil
}
