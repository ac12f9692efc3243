package plugbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plugbot/plugbot/client"
	"github.com/plugbot/plugbot/instance"
	"github.com/plugbot/plugbot/loader"
	"github.com/plugbot/plugbot/store"
)

// Host is the process-wide bootstrap for the plugin lifecycle manager.
//
// It wires the shared collaborators — record store, loader registry,
// client registry, logger, tracer — into an instance registry exactly
// once. There is no reinitialization path: shared context is fixed for the
// host's lifetime, and a second host is a fully independent process
// domain.
type Host struct {
	runID   string
	log     *slog.Logger
	tracer  trace.Tracer
	cfg     *Config
	store   store.Store
	ownsDB  bool
	loaders *loader.Registry
	clients *client.Registry
	insts   *instance.Registry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New bootstraps a host.
//
// Example:
//
//	host, err := plugbot.New(
//	    plugbot.WithConfigFile("/etc/plugbot"),
//	    plugbot.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Shutdown(context.Background())
func New(opts ...Option) (*Host, error) {
	o := &hostOptions{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.config
	if cfg == nil && o.configPath != "" {
		loaded, err := LoadConfig(o.configPath)
		if err != nil {
			return nil, NewConfigurationError("Host.New", err)
		}
		cfg = loaded
	}
	if cfg == nil {
		cfg = &Config{}
	}

	log := o.logger
	if log == nil {
		log = buildLogger(cfg.Logging)
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("github.com/plugbot/plugbot")
	}

	db := o.store
	ownsDB := false
	if db == nil {
		opened, err := openStore(cfg.Storage)
		if err != nil {
			return nil, NewConfigurationError("Host.New", err)
		}
		db = opened
		ownsDB = true
	}

	h := &Host{
		runID:   uuid.New().String(),
		log:     log,
		tracer:  tracer,
		cfg:     cfg,
		store:   db,
		ownsDB:  ownsDB,
		loaders: loader.NewRegistry(),
		clients: client.NewRegistry(),
	}
	h.ctx, h.cancel = context.WithCancel(context.Background())

	insts, err := instance.NewRegistry(instance.Deps{
		Store:   db,
		Loaders: h.loaders,
		Clients: h.clients,
		Logger:  log,
		Tracer:  tracer,
		Sched:   h,
	})
	if err != nil {
		if ownsDB {
			CloseWithLog(db, log, "record store")
		}
		h.cancel()
		return nil, NewInternalError("Host.New", err)
	}
	h.insts = insts

	log.Info("host initialized",
		slog.String("run_id", h.runID),
		slog.String("storage", cfg.Storage.GetBackend()),
	)
	return h, nil
}

// buildLogger constructs the default logger from the Logging section.
func buildLogger(cfg *LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.GetLevel() {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.GetFormat() == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
}

// openStore builds the record store selected by the Storage section.
func openStore(cfg *StorageConfig) (store.Store, error) {
	switch cfg.GetBackend() {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(store.RedisOptions{
			URL:    cfg.RedisURL,
			Prefix: cfg.GetPrefix(),
		})
	case "etcd":
		return store.NewEtcdStore(store.EtcdOptions{
			Endpoints: cfg.EtcdEndpoints,
			Namespace: cfg.GetPrefix(),
		})
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, cfg.GetBackend())
	}
}

// RunID returns the identifier of this host process run, used for log
// correlation.
func (h *Host) RunID() string {
	return h.runID
}

// Instances returns the instance registry.
func (h *Host) Instances() *instance.Registry {
	return h.insts
}

// Loaders returns the loader registry.
func (h *Host) Loaders() *loader.Registry {
	return h.loaders
}

// Clients returns the client registry.
func (h *Host) Clients() *client.Registry {
	return h.clients
}

// Go runs plugin background work tied to the host's lifetime. The
// function's context is cancelled when the host shuts down. Implements
// plugin.Scheduler.
func (h *Host) Go(fn func(ctx context.Context)) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn(h.ctx)
	}()
}

// StartAll binds and starts every enabled instance. Per-instance faults
// are contained by the lifecycle controller; only bookkeeping failures
// are collected and returned.
func (h *Host) StartAll(ctx context.Context) error {
	if h.isClosed() {
		return NewExecutionError("Host.StartAll", ErrClosed)
	}

	all, err := h.insts.All(ctx)
	if err != nil {
		return NewInternalError("Host.StartAll", err)
	}

	timeout := h.cfg.Lifecycle.GetStartTimeout()
	var errs []error
	for _, inst := range all {
		if !inst.Enabled() {
			continue
		}
		startCtx, cancel := context.WithTimeout(ctx, timeout)
		err := inst.Start(startCtx)
		cancel()
		if err != nil {
			h.log.Error("instance start bookkeeping failed",
				slog.String("instance", inst.ID()),
				slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopAll stops every running instance.
func (h *Host) StopAll(ctx context.Context) error {
	all, err := h.insts.All(ctx)
	if err != nil {
		return NewInternalError("Host.StopAll", err)
	}

	timeout := h.cfg.Lifecycle.GetStopTimeout()
	var errs []error
	for _, inst := range all {
		if !inst.Running() {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, timeout)
		err := inst.Stop(stopCtx)
		cancel()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Host) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Shutdown stops all running instances, cancels scheduled plugin work,
// waits for it to drain, and closes the store if the host opened it.
// Shutdown is idempotent.
func (h *Host) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	stopErr := h.StopAll(ctx)
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		h.log.Warn("shutdown wait cancelled before plugin work drained")
	}

	if h.ownsDB {
		CloseWithLog(h.store, h.log, "record store")
	}
	h.log.Info("host shut down", slog.String("run_id", h.runID))
	return stopErr
}
