package plugbot

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/plugbot/plugbot/store"
)

// Option configures the Host.
type Option func(*hostOptions)

// hostOptions holds configuration collected before the Host is built.
type hostOptions struct {
	config     *Config
	configPath string
	logger     *slog.Logger
	tracer     trace.Tracer
	store      store.Store
}

// WithConfig sets the host configuration directly.
func WithConfig(cfg *Config) Option {
	return func(o *hostOptions) {
		o.config = cfg
	}
}

// WithConfigFile loads the host configuration from a plugbot.yaml file or
// a directory containing one.
func WithConfigFile(path string) Option {
	return func(o *hostOptions) {
		o.configPath = path
	}
}

// WithLogger sets a custom logger for the host. If not provided, a logger
// is built from the Logging section of the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *hostOptions) {
		o.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for lifecycle spans. Defaults
// to a no-op tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *hostOptions) {
		o.tracer = tracer
	}
}

// WithStore sets the record store directly, overriding the Storage
// section of the configuration. The caller keeps ownership: the host will
// not close an injected store on shutdown.
func WithStore(s store.Store) Option {
	return func(o *hostOptions) {
		o.store = s
	}
}
