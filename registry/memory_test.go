package registry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conform-io/conform/schema"
)

func userEntry() Entry {
	return Entry{
		Name:    "users/user",
		Version: "1.0.0",
		Schema: schema.Object(map[string]schema.Schema{
			"id":   schema.UUID,
			"name": schema.String,
		}),
	}
}

func TestMemoryPutGet(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, userEntry()))

	got, err := store.Get(ctx, "users/user")
	require.NoError(t, err)
	assert.Equal(t, "users/user", got.Name)
	assert.Equal(t, "1.0.0", got.Version)
	assert.False(t, got.UpdatedAt.IsZero(), "Put should stamp UpdatedAt")

	assert.True(t, schema.IsValid(map[string]any{
		"id":   "8a6e0804-2bd0-4672-b79d-d97027f9071a",
		"name": "Alice",
	}, got.Schema))
}

func TestMemoryGetMissing(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPutRejectsMalformed(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	ctx := context.Background()

	t.Run("empty name", func(t *testing.T) {
		assert.Error(t, store.Put(ctx, Entry{Schema: schema.String}))
	})

	t.Run("nil schema", func(t *testing.T) {
		assert.Error(t, store.Put(ctx, Entry{Name: "x"}))
	})

	t.Run("ill-formed schema", func(t *testing.T) {
		assert.Error(t, store.Put(ctx, Entry{
			Name:   "x",
			Schema: schema.Regex("(unclosed"),
		}))
	})
}

func TestMemoryList(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, userEntry()))
	require.NoError(t, store.Put(ctx, Entry{Name: "other", Schema: schema.Number}))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMemoryDelete(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, userEntry()))
	require.NoError(t, store.Delete(ctx, "users/user"))

	_, err := store.Get(ctx, "users/user")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "users/user"), "deleting an absent entry is a no-op")
}

func TestMemoryWatch(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Watch(ctx, "users/user")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, userEntry()))

	select {
	case entry := <-ch:
		assert.Equal(t, "users/user", entry.Name)
	case <-time.After(time.Second):
		t.Fatal("watch did not deliver the update")
	}
}

func TestMemoryCloseTerminatesWatch(t *testing.T) {
	store := NewMemory()

	ch, err := store.Watch(context.Background(), "x")
	require.NoError(t, err)

	require.NoError(t, store.Close())

	select {
	case _, open := <-ch:
		assert.False(t, open, "watch channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed on store close")
	}

	assert.Error(t, store.Put(context.Background(), userEntry()))
}

func TestEntryJSONRoundTrip(t *testing.T) {
	entry := userEntry()
	entry.UpdatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var back Entry
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, entry.Name, back.Name)
	assert.Equal(t, entry.Version, back.Version)
	assert.Equal(t, entry.UpdatedAt, back.UpdatedAt)

	// The decoded schema must behave like the original.
	v := map[string]any{
		"id":   "8a6e0804-2bd0-4672-b79d-d97027f9071a",
		"name": "Alice",
	}
	assert.True(t, schema.IsValid(v, back.Schema))
	assert.False(t, schema.IsValid(map[string]any{"id": "nope", "name": "Alice"}, back.Schema))
}
