package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Config configures the etcd-backed store.
type Config struct {
	// Endpoints is the list of etcd endpoints (e.g., "localhost:2379")
	Endpoints []string

	// Namespace prefixes all keys: /<namespace>/schemas/<name>
	Namespace string

	// DialTimeout bounds connection establishment; defaults to 5s
	DialTimeout time.Duration

	// TLS enables client-certificate authentication when set
	TLS *TLSConfig
}

// Etcd is a Store backed by an etcd cluster. Schemas written here survive
// process restarts and are visible to every connected service.
//
// Thread-safety: all methods are safe for concurrent use.
type Etcd struct {
	client    *clientv3.Client
	namespace string

	mu         sync.Mutex
	wg         sync.WaitGroup
	closed     bool
	closedChan chan struct{}
}

// NewEtcd creates an etcd-backed store from the provided configuration.
//
// The connection is verified with a quick health check; an unreachable
// cluster is reported immediately rather than on first use. Close the store
// to release the connection and stop watch goroutines.
func NewEtcd(cfg Config) (*Etcd, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("registry endpoints cannot be empty")
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "conform"
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}

	clientCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
	}

	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsConfig, err := cfg.TLS.clientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		clientCfg.TLS = tlsConfig
	}

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := cli.Get(ctx, "health-check"); err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &Etcd{
		client:     cli,
		namespace:  namespace,
		closedChan: make(chan struct{}),
	}, nil
}

// NewEtcdFromEnv creates an etcd-backed store using the
// CONFORM_REGISTRY_ENDPOINTS environment variable, a comma-separated list of
// endpoints.
//
// If the variable is not set, (nil, nil) is returned so callers can fall
// back to a local store without treating the absence as an error.
func NewEtcdFromEnv() (*Etcd, error) {
	endpoints := os.Getenv("CONFORM_REGISTRY_ENDPOINTS")
	if endpoints == "" {
		return nil, nil
	}

	list := strings.Split(endpoints, ",")
	for i, ep := range list {
		list[i] = strings.TrimSpace(ep)
	}

	return NewEtcd(Config{Endpoints: list})
}

// Put writes an entry, replacing any previous schema of the same name.
func (s *Etcd) Put(ctx context.Context, entry Entry) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := entry.validate(); err != nil {
		return err
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if _, err := s.client.Put(ctx, s.key(entry.Name), string(data)); err != nil {
		return fmt.Errorf("failed to store schema %q: %w", entry.Name, err)
	}
	return nil
}

// Get returns the entry with the given name, or ErrNotFound.
func (s *Etcd) Get(ctx context.Context, name string) (Entry, error) {
	if err := s.checkOpen(); err != nil {
		return Entry{}, err
	}

	resp, err := s.client.Get(ctx, s.key(name))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read schema %q: %w", name, err)
	}
	if len(resp.Kvs) == 0 {
		return Entry{}, fmt.Errorf("schema %q: %w", name, ErrNotFound)
	}

	var entry Entry
	if err := json.Unmarshal(resp.Kvs[0].Value, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to parse stored schema %q: %w", name, err)
	}
	return entry, nil
}

// List returns all entries under the namespace.
func (s *Etcd) List(ctx context.Context) ([]Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	resp, err := s.client.Get(ctx, s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}

	entries := make([]Entry, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var entry Entry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			// Skip entries written by incompatible versions
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete removes the entry with the given name.
func (s *Etcd) Delete(ctx context.Context, name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if _, err := s.client.Delete(ctx, s.key(name)); err != nil {
		return fmt.Errorf("failed to delete schema %q: %w", name, err)
	}
	return nil
}

// Watch returns a channel receiving the entry under name after each change.
// The channel is closed when the context is canceled or the store closes.
func (s *Etcd) Watch(ctx context.Context, name string) (<-chan Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("registry store is closed")
	}

	ch := make(chan Entry, 1)
	watchChan := s.client.Watch(ctx, s.key(name))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.closedChan:
				return
			case resp, ok := <-watchChan:
				if !ok || resp.Err() != nil {
					return
				}
				for _, ev := range resp.Events {
					if ev.Type != clientv3.EventTypePut {
						continue
					}
					var entry Entry
					if err := json.Unmarshal(ev.Kv.Value, &entry); err != nil {
						continue
					}
					select {
					case ch <- entry:
					case <-ctx.Done():
						return
					case <-s.closedChan:
						return
					}
				}
			}
		}
	}()

	return ch, nil
}

// Close releases the etcd connection and stops all watch goroutines.
func (s *Etcd) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closedChan)
	s.mu.Unlock()

	s.wg.Wait()
	return s.client.Close()
}

func (s *Etcd) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("registry store is closed")
	}
	return nil
}

func (s *Etcd) prefix() string {
	return fmt.Sprintf("/%s/schemas/", s.namespace)
}

func (s *Etcd) key(name string) string {
	return s.prefix() + name
}
