package conform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/conform-io/conform/registry"
	"github.com/conform-io/conform/schema"
	"github.com/conform-io/conform/schemafile"
	"github.com/conform-io/conform/value"
)

// Client ties a schema catalog to the validation engine. It is the
// high-level entry point for applications that manage named schemas;
// callers that construct schemas inline can use the schema package
// directly.
type Client interface {
	// Register stores a schema under a name, replacing any previous
	// version. The schema must be well formed.
	Register(ctx context.Context, name string, s schema.Schema) error

	// RegisterDocument stores every schema declared by a schemafile
	// document, keyed as "<document>/<schema>".
	RegisterDocument(ctx context.Context, doc *schemafile.Document) error

	// Validate reports whether a JSON document conforms to the named
	// schema. The error is non-nil only when the schema cannot be
	// resolved or the document is not readable JSON.
	Validate(ctx context.Context, name string, doc []byte) (bool, error)

	// Strip returns the JSON document with every field the named schema
	// does not declare removed. Non-conforming documents fail with
	// schema.ErrNotValid.
	Strip(ctx context.Context, name string, doc []byte) ([]byte, error)

	// Schemas exposes the underlying store for listing, watching, and
	// deletion.
	Schemas() registry.Store

	// Close releases the store and any resources behind it.
	Close() error
}

// New builds a Client. With no options it keeps schemas in memory and logs
// as JSON to stderr.
//
// Example:
//
//	client, err := conform.New(
//	    conform.WithLogger(logger),
//	    conform.WithSchemaDir("./schemas"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func New(opts ...Option) (Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if cfg.store == nil {
		cfg.store = registry.NewMemory()
	}

	c := &client{
		logger: cfg.logger,
		store:  cfg.store,
	}

	if cfg.schemaDir != "" {
		docs, err := schemafile.LoadDir(cfg.schemaDir)
		if err != nil {
			return nil, fmt.Errorf("loading schema dir: %w", err)
		}
		ctx := context.Background()
		for _, doc := range docs {
			if err := c.RegisterDocument(ctx, doc); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

type client struct {
	logger *slog.Logger
	store  registry.Store
}

func (c *client) Register(ctx context.Context, name string, s schema.Schema) error {
	if err := c.store.Put(ctx, registry.Entry{Name: name, Schema: s}); err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "schema registered", "name", name)
	return nil
}

func (c *client) RegisterDocument(ctx context.Context, doc *schemafile.Document) error {
	for name, s := range doc.Schemas {
		entry := registry.Entry{
			Name:        doc.Name + "/" + name,
			Version:     doc.Version,
			Description: doc.Description,
			Schema:      s,
		}
		if err := c.store.Put(ctx, entry); err != nil {
			return fmt.Errorf("registering %s: %w", entry.Name, err)
		}
	}
	c.logger.DebugContext(ctx, "document registered",
		"name", doc.Name,
		"schemas", len(doc.Schemas))
	return nil
}

func (c *client) Validate(ctx context.Context, name string, doc []byte) (bool, error) {
	entry, err := c.store.Get(ctx, name)
	if err != nil {
		return false, err
	}
	v, err := value.DecodeJSON(doc)
	if err != nil {
		return false, fmt.Errorf("reading document: %w", err)
	}
	return schema.IsValid(v, entry.Schema), nil
}

func (c *client) Strip(ctx context.Context, name string, doc []byte) ([]byte, error) {
	entry, err := c.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	v, err := value.DecodeJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	stripped, err := schema.Strip(v, entry.Schema)
	if err != nil {
		return nil, err
	}
	return value.EncodeJSON(stripped)
}

func (c *client) Schemas() registry.Store { return c.store }

func (c *client) Close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
