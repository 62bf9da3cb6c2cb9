package conform

import (
	"log/slog"

	"github.com/conform-io/conform/registry"
)

// Option configures a Client at construction time.
type Option func(*clientConfig)

type clientConfig struct {
	logger    *slog.Logger
	store     registry.Store
	schemaDir string
}

// WithLogger sets the structured logger the client reports through.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithStore backs the client with a specific schema store, for example an
// etcd registry shared across processes. The client takes ownership and
// closes the store on Close.
func WithStore(store registry.Store) Option {
	return func(cfg *clientConfig) {
		cfg.store = store
	}
}

// WithSchemaDir loads every schemafile document from the directory at
// construction time. Schemas register under "<document>/<schema>".
func WithSchemaDir(dir string) Option {
	return func(cfg *clientConfig) {
		cfg.schemaDir = dir
	}
}
