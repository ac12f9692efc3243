// Package config resolves layered plugin instance configuration.
//
// An instance's effective configuration has two layers: an optional
// plugin-supplied base (default) document packaged with the plugin code,
// and an instance-specific override document persisted with the instance
// record. Plugins consume the merged view; only the override layer is ever
// written back.
//
// Documents are YAML, held as yaml.v3 node trees rather than flat maps so
// that comments, key ordering, and scalar styles survive load/modify/save
// round-trips. Hand-edited instance configs keep their formatting.
package config
