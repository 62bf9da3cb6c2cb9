// Package conform is a toolkit for describing the shape of JSON-like data
// and enforcing it at runtime.
//
// A schema is a plain value built from the combinators in the schema
// subpackage. The engine answers two questions about a parsed document:
// whether it conforms (schema.IsValid), and what it looks like with every
// undeclared field removed (schema.Strip).
//
// # Core Concepts
//
// The module is organized around a small set of packages:
//
//   - schema: the schema model, validator, stripper, and wire codec
//   - value: the dynamic value domain shared by every component
//   - schemafile: YAML/JSON documents that declare named schemas
//   - registry: schema storage, in memory or backed by etcd
//   - queue, worker: asynchronous validation over Redis
//   - pbvalue, interceptor: protobuf payloads and gRPC middleware
//
// # Getting Started
//
// The root package ties schema storage and the engine together behind a
// single client:
//
//	client, err := conform.New(
//		conform.WithSchemaDir("./schemas"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	ok, err := client.Validate(ctx, "invoice", payload)
//
// Applications that only need the engine can use the schema package
// directly; the client exists for callers that manage a catalog of named
// schemas.
package conform
