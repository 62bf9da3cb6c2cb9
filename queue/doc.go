// Package queue provides the Redis transport for asynchronous validation
// jobs.
//
// Submitters push Jobs onto a list (LPUSH); workers block-pop them (BRPOP),
// validate the document against a registry schema, and publish Results on a
// job-specific pub/sub channel. Worker liveness is tracked with TTL'd
// heartbeat keys and a per-queue gauge.
//
// The transport carries documents as raw JSON; nothing in this package
// interprets them. See the worker package for the processing loop.
package queue
