// Package plugbot manages the lifecycle of configured plugin instances
// within one host process.
//
// Each installed plugin configuration is an instance: a persisted record
// binding a plugin type to a communication client, with its own layered
// YAML configuration. The host materializes at most one live instance per
// identifier, binds it to its code loader and client, and drives it
// through load, start, and stop while containing faults raised by plugin
// code.
//
// # Core Concepts
//
//   - Instance: one configured, independently started/stopped deployment
//     of a plugin (package instance)
//   - Loader: resolves plugin type identifiers to loadable code and
//     packaged resources (package loader)
//   - Client: the bound communication identity and transport an instance
//     talks through (package client)
//   - Config: comment-preserving layered YAML configuration, a plugin
//     base overlaid by an instance override (package config)
//   - Store: persisted instance records and plugin-private data, with
//     memory, Redis, and etcd backends (package store)
//
// # Getting Started
//
// Bootstrap a host once per process, register loaders and clients, then
// start the installed instances:
//
//	host, err := plugbot.New(
//	    plugbot.WithConfigFile("/etc/plugbot"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Shutdown(context.Background())
//
//	host.Loaders().Register(echoLoader)
//	host.Clients().Put(&client.Client{UserID: "@bot:example.com"})
//
//	if err := host.StartAll(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Failure Containment
//
// Faults raised by plugin code or by dependency resolution never
// propagate to the host's caller: the affected instance is disabled (on
// start faults) or logged (on stop faults) and the rest of the process
// carries on. Re-enabling a contained instance is an explicit external
// action; the host performs no automatic retry.
package plugbot
