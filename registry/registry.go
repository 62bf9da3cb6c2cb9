// Package registry provides named, versioned schema storage so independently
// deployed services can validate against the same schemas.
//
// Two implementations are provided:
//
//   - Memory: process-local storage for tests and single-process setups
//   - Etcd: shared storage on an etcd cluster, with watch support so
//     consumers pick up schema changes without restarting
//
// Entries are serialized through the schema wire grammar, so anything stored
// here can also be inspected with ordinary etcd tooling.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/conform-io/conform/schema"
)

// ErrNotFound is returned by Get when no entry exists under the given name.
var ErrNotFound = errors.New("schema not found")

// Entry is one named schema with identifying metadata.
type Entry struct {
	// Name is the unique schema identifier (e.g., "billing/invoice")
	Name string `json:"name"`

	// Version is the semantic version of the schema definition
	Version string `json:"version,omitempty"`

	// Description is a human-readable summary
	Description string `json:"description,omitempty"`

	// Schema is the parsed schema definition
	Schema schema.Schema `json:"-"`

	// UpdatedAt is when this entry was last written
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// wireEntry is the serialized shape of an Entry; the schema travels in its
// wire grammar.
type wireEntry struct {
	Name        string          `json:"name"`
	Version     string          `json:"version,omitempty"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

// MarshalJSON serializes the entry with the schema in wire form.
func (e Entry) MarshalJSON() ([]byte, error) {
	s, err := schema.Marshal(e.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema %q: %w", e.Name, err)
	}
	return json.Marshal(wireEntry{
		Name:        e.Name,
		Version:     e.Version,
		Description: e.Description,
		Schema:      s,
		UpdatedAt:   e.UpdatedAt,
	})
}

// UnmarshalJSON parses an entry, decoding the schema from wire form.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s, err := schema.Parse(w.Schema)
	if err != nil {
		return fmt.Errorf("failed to parse schema %q: %w", w.Name, err)
	}
	*e = Entry{
		Name:        w.Name,
		Version:     w.Version,
		Description: w.Description,
		Schema:      s,
		UpdatedAt:   w.UpdatedAt,
	}
	return nil
}

// validate rejects entries that cannot be stored.
func (e Entry) validate() error {
	if e.Name == "" {
		return fmt.Errorf("entry name cannot be empty")
	}
	if e.Schema == nil {
		return fmt.Errorf("entry %q has no schema", e.Name)
	}
	if err := schema.Check(e.Schema); err != nil {
		return fmt.Errorf("entry %q: %w", e.Name, err)
	}
	return nil
}

// Store is the schema registry interface.
//
// Implementations must be safe for concurrent use. Put rejects malformed
// schemas up front (see schema.Check); consumers can therefore trust that
// anything read back is well-formed.
type Store interface {
	// Put writes an entry, replacing any previous schema of the same name.
	Put(ctx context.Context, entry Entry) error

	// Get returns the entry with the given name, or ErrNotFound.
	Get(ctx context.Context, name string) (Entry, error)

	// List returns all entries in unspecified order.
	List(ctx context.Context) ([]Entry, error)

	// Delete removes the entry with the given name. Deleting an absent
	// entry is a no-op.
	Delete(ctx context.Context, name string) error

	// Watch returns a channel receiving the entry under name after each
	// change. The channel is closed when the context is canceled or the
	// store is closed.
	Watch(ctx context.Context, name string) (<-chan Entry, error)

	// Close releases resources held by the store.
	Close() error
}
