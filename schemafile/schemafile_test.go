package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conform-io/conform/schema"
)

const sampleYAML = `
name: billing
version: 1.2.0
description: Invoice ingestion schemas
schemas:
  invoice:
    id: uuid
    total: number
    currency: [enum, USD, EUR]
    memo: [optional, string]
  line_item:
    sku: [regex, "[A-Z]{3}-[0-9]{4}"]
    quantity: uint32
`

const sampleJSON = `{
	"name": "events",
	"version": "0.1.0",
	"schemas": {
		"ping": {"seq": "uint", "payload": ["optional", ["array", "number"]]}
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "billing.yaml", sampleYAML)

	doc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "billing", doc.Name)
	assert.Equal(t, "1.2.0", doc.Version)
	require.Contains(t, doc.Schemas, "invoice")
	require.Contains(t, doc.Schemas, "line_item")

	invoice := doc.Schemas["invoice"]
	assert.True(t, schema.IsValid(map[string]any{
		"id":       "8a6e0804-2bd0-4672-b79d-d97027f9071a",
		"total":    12.50,
		"currency": "USD",
	}, invoice))
	assert.False(t, schema.IsValid(map[string]any{
		"id":       "8a6e0804-2bd0-4672-b79d-d97027f9071a",
		"total":    12.50,
		"currency": "GBP",
	}, invoice))

	item := doc.Schemas["line_item"]
	assert.True(t, schema.IsValid(map[string]any{"sku": "ABC-1234", "quantity": 2}, item))
	assert.False(t, schema.IsValid(map[string]any{"sku": "abc-1234", "quantity": 2}, item))
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "events.json", sampleJSON)

	doc, err := Load(path)
	require.NoError(t, err)

	ping := doc.Schemas["ping"]
	assert.True(t, schema.IsValid(map[string]any{"seq": 1}, ping))
	assert.True(t, schema.IsValid(map[string]any{"seq": 1, "payload": []any{1.5}}, ping))
	assert.False(t, schema.IsValid(map[string]any{"seq": -1}, ping))
}

func TestLoadRejectsMalformedSchema(t *testing.T) {
	doc := `
name: broken
schemas:
  bad:
    field: [regex, "(unclosed"]
`
	path := writeFile(t, t.TempDir(), "broken.yaml", doc)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "anon.yaml", "schemas:\n  s: string\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "name: empty\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "billing.yaml", sampleYAML)
	writeFile(t, dir, "events.json", sampleJSON)
	writeFile(t, dir, "notes.txt", "not a schema file")

	docs, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, docs, 2)
	assert.Contains(t, docs, "billing")
	assert.Contains(t, docs, "events")
}

func TestLoadDirDuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: same\nschemas:\n  s: string\n")
	writeFile(t, dir, "b.yaml", "name: same\nschemas:\n  s: number\n")

	_, err := LoadDir(dir)
	assert.Error(t, err)
}
