// Package schemafile loads schema documents from YAML or JSON files.
// A document bundles a set of named schemas with identifying metadata, so a
// service can keep its schemas next to its configuration and load them at
// startup.
package schemafile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conform-io/conform/schema"
)

// Document is a parsed schema file: identifying metadata plus one schema per
// name. Schemas inside the file use the ordinary wire grammar.
type Document struct {
	// Name identifies the document (e.g., "billing")
	Name string `yaml:"name" json:"name"`

	// Version is the document's semantic version (e.g., "1.2.0")
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Description is a human-readable summary of what the schemas cover
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Schemas maps schema names to their parsed form
	Schemas map[string]schema.Schema `yaml:"-" json:"-"`
}

// rawDocument is the on-disk shape before schemas are decoded.
type rawDocument struct {
	Name        string         `yaml:"name" json:"name"`
	Version     string         `yaml:"version" json:"version"`
	Description string         `yaml:"description" json:"description"`
	Schemas     map[string]any `yaml:"schemas" json:"schemas"`
}

// Load reads and parses a schema document from the given path. The format is
// chosen by extension: .json parses as JSON, everything else as YAML.
//
// Every schema in the document is checked for well-formedness; a document
// carrying a malformed schema is rejected as a whole.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var raw rawDocument
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	return fromRaw(path, raw)
}

// LoadDir loads every .yaml, .yml, and .json schema document in a directory,
// non-recursively. Documents are returned keyed by their declared name.
func LoadDir(dir string) (map[string]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	docs := make(map[string]*Document)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}

		doc, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := docs[doc.Name]; dup {
			return nil, fmt.Errorf("duplicate document name %q in %s", doc.Name, entry.Name())
		}
		docs[doc.Name] = doc
	}

	return docs, nil
}

func fromRaw(path string, raw rawDocument) (*Document, error) {
	if raw.Name == "" {
		return nil, fmt.Errorf("schema file %s is missing a document name", path)
	}
	if len(raw.Schemas) == 0 {
		return nil, fmt.Errorf("schema file %s declares no schemas", path)
	}

	doc := &Document{
		Name:        raw.Name,
		Version:     raw.Version,
		Description: raw.Description,
		Schemas:     make(map[string]schema.Schema, len(raw.Schemas)),
	}
	for name, wire := range raw.Schemas {
		s := schema.FromWire(normalizeYAML(wire))
		if err := schema.Check(s); err != nil {
			return nil, fmt.Errorf("schema %q in %s: %w", name, path, err)
		}
		doc.Schemas[name] = s
	}
	return doc, nil
}

// normalizeYAML rewrites yaml.v3 map shapes into the map[string]any / []any
// shapes the wire decoder expects. yaml.v3 already produces map[string]any
// for string-keyed maps, but nested sequences can surface as []interface{}
// holding map[interface{}]interface{} when keys are not plain strings.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalizeYAML(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}
