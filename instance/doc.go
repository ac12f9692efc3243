// Package instance tracks configured plugin deployments and drives them
// through load, start, and stop.
//
// Each persisted record is materialized as at most one live Instance per
// process; the Registry is the sole authority for that invariant. An
// Instance binds to two process-wide collaborators, a code loader and a
// communication client, registering itself into their reverse-reference
// sets so neither can be removed while still in use.
//
// Failure containment is the central design rule: faults raised by plugin
// code or by dependency resolution are converted into the disabled state
// and logged, never propagated to the host's caller. Only failures of this
// package's own bookkeeping (persistence, cache state) surface as errors.
package instance
