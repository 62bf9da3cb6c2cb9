package registry

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is a process-local Store. It is the zero-ops option for tests and
// single-process deployments; nothing is persisted.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	watchers map[string][]chan Entry
	closed   bool
}

// NewMemory creates an empty in-memory schema store.
func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[string]Entry),
		watchers: make(map[string][]chan Entry),
	}
}

// Put writes an entry, replacing any previous schema of the same name.
func (m *Memory) Put(_ context.Context, entry Entry) error {
	if err := entry.validate(); err != nil {
		return err
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry store is closed")
	}
	m.entries[entry.Name] = entry

	// Non-blocking notify; a slow watcher misses intermediate states but
	// always sees the latest on its next receive.
	for _, ch := range m.watchers[entry.Name] {
		select {
		case ch <- entry:
		default:
		}
	}
	return nil
}

// Get returns the entry with the given name, or ErrNotFound.
func (m *Memory) Get(_ context.Context, name string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Entry{}, fmt.Errorf("registry store is closed")
	}
	entry, ok := m.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("schema %q: %w", name, ErrNotFound)
	}
	return entry, nil
}

// List returns all entries in unspecified order.
func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("registry store is closed")
	}
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

// Delete removes the entry with the given name.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("registry store is closed")
	}
	delete(m.entries, name)
	return nil
}

// Watch returns a channel receiving the entry under name after each Put.
func (m *Memory) Watch(ctx context.Context, name string) (<-chan Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("registry store is closed")
	}

	ch := make(chan Entry, 1)
	m.watchers[name] = append(m.watchers[name], ch)

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removeWatcher(name, ch)
	}()

	return ch, nil
}

// removeWatcher must be called with the lock held.
func (m *Memory) removeWatcher(name string, ch chan Entry) {
	watchers := m.watchers[name]
	for i, w := range watchers {
		if w == ch {
			m.watchers[name] = append(watchers[:i], watchers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close marks the store closed and terminates all watches.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for name, watchers := range m.watchers {
		for _, ch := range watchers {
			close(ch)
		}
		delete(m.watchers, name)
	}
	return nil
}
