// Package worker runs the asynchronous validation loop.
//
// A worker consumes validation jobs from a Redis queue, resolves the named
// schema from a registry store, checks the document, optionally strips
// undeclared fields, and publishes the result on the job's reply channel.
//
//	store, _ := registry.NewEtcdFromEnv()
//	err := worker.Run(store, worker.Options{Concurrency: 8})
//
// Run blocks until SIGTERM/SIGINT and drains in-flight jobs on shutdown.
// OpenTelemetry metrics and spans are emitted per job when Options.Telemetry
// is configured.
package worker
