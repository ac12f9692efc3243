// Package plugin defines the contract between the lifecycle manager and
// plugin runtime code.
//
// A plugin ships a Factory; the lifecycle controller calls it once per
// start with a RunContext carrying the instance's bound collaborators,
// then drives the returned Plugin through Start and Stop. Everything a
// plugin needs from the host arrives through the RunContext; plugins hold
// no other host state.
package plugin

import (
	"context"
	"log/slog"

	"github.com/plugbot/plugbot/client"
	"github.com/plugbot/plugbot/config"
	"github.com/plugbot/plugbot/store"
)

// Plugin is one live runtime object of a started instance.
//
// Start and Stop may block on I/O; they receive the caller's context but
// cancellation of an in-flight transition is not supported. Faults raised
// by either hook are contained by the lifecycle controller, never
// propagated to the host's caller.
type Plugin interface {
	// Start brings the plugin online. Called at most once per runtime
	// object.
	Start(ctx context.Context) error

	// Stop tears the plugin down. By the time Stop runs the instance is
	// already advertised as not running.
	Stop(ctx context.Context) error
}

// Factory creates runtime objects for one plugin type.
type Factory struct {
	// New constructs a runtime object from its run context.
	New func(rc RunContext) (Plugin, error)

	// WantsConfig reports whether the plugin declares a configuration
	// class. When false the lifecycle controller skips config resolution
	// and RunContext.Config is nil.
	WantsConfig bool
}

// RunContext carries everything a runtime object may depend on.
type RunContext struct {
	// ID is the instance identifier.
	ID string

	// Client is the bound communication client.
	Client *client.Client

	// Log is scoped to the instance.
	Log *slog.Logger

	// Config is the resolved base+override configuration proxy; nil when
	// the plugin declares no configuration.
	Config *config.Proxy

	// Data is the plugin's private persisted namespace, derived from the
	// instance ID.
	Data store.Namespace

	// Sched runs background work tied to the host's lifetime.
	Sched Scheduler
}

// Scheduler runs plugin background work. The function receives a context
// that is cancelled when the host shuts down.
type Scheduler interface {
	Go(fn func(ctx context.Context))
}
