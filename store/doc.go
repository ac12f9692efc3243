// Package store persists plugin instance records and plugin-private data.
//
// The store is the single source of truth for instance configuration: each
// installed plugin instance is one Record. The in-memory Instance object is
// a thin behavioral wrapper around its Record; everything that should
// survive a process restart lives here.
//
// Three backends are provided:
//
//   - MemoryStore: process-local, used in tests and single-shot tooling
//   - RedisStore: records as Redis hashes with a set index
//   - EtcdStore: records as JSON values under a key prefix
//
// Each backend also hands out per-plugin Namespace buckets, keyed by
// instance ID, that plugins use for their own private persisted data.
// Deleting an instance clears its namespace.
package store
