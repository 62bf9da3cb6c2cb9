package conform

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conform-io/conform/registry"
	"github.com/conform-io/conform/schema"
)

var userSchema = schema.Object(map[string]schema.Schema{
	"name":  schema.String,
	"email": schema.Optional(schema.String),
})

func newTestClient(t *testing.T, opts ...Option) Client {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientValidate(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Register(ctx, "user", userSchema))

	ok, err := c.Validate(ctx, "user", []byte(`{"name":"alice","role":"admin"}`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Validate(ctx, "user", []byte(`{"email":"a@b.c"}`))
	require.NoError(t, err)
	assert.False(t, ok, "missing required field")
}

func TestClientValidateUnknownSchema(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Validate(context.Background(), "nope", []byte(`{}`))
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestClientValidateBadJSON(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Register(ctx, "user", userSchema))

	_, err := c.Validate(ctx, "user", []byte(`{"name":`))
	assert.Error(t, err)
}

func TestClientStrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Register(ctx, "user", userSchema))

	out, err := c.Strip(ctx, "user", []byte(`{"name":"alice","role":"admin"}`))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, map[string]any{"name": "alice"}, got)
}

func TestClientStripRejectsNonConforming(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Register(ctx, "user", userSchema))

	_, err := c.Strip(ctx, "user", []byte(`{"name":7}`))
	assert.ErrorIs(t, err, schema.ErrNotValid)
}

func TestClientRegisterRejectsMalformed(t *testing.T) {
	c := newTestClient(t)

	err := c.Register(context.Background(), "bad", schema.AnyOf())
	assert.Error(t, err)
}

func TestClientSchemaDir(t *testing.T) {
	dir := t.TempDir()
	doc := `name: billing
version: "1"
schemas:
  invoice:
    total: number
    currency: [enum, USD, EUR]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yaml"), []byte(doc), 0o644))

	ctx := context.Background()
	c := newTestClient(t, WithSchemaDir(dir))

	ok, err := c.Validate(ctx, "billing/invoice", []byte(`{"total":10,"currency":"USD"}`))
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := c.Schemas().List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "billing/invoice", entries[0].Name)
}

func TestClientWithStore(t *testing.T) {
	store := registry.NewMemory()
	c := newTestClient(t, WithStore(store))

	ctx := context.Background()
	require.NoError(t, c.Register(ctx, "user", userSchema))

	entry, err := store.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "user", entry.Name)
}
