// Package memdb is an in-memory realtime database. It is meant for tests,
// demos and applications that want list plumbing without a server.
package memdb

import (
	"context"
	"sync"

	"github.com/ayn2op/soilview/realtime"
)

// DB is a [realtime.Client] over an in-memory backend.
type DB struct {
	*realtime.Client
}

// New returns an empty database.
func New() *DB {
	return &DB{
		Client: realtime.NewClient(newBackend()),
	}
}

type backend struct {
	mu    sync.RWMutex
	nodes map[string]map[string]any
}

func newBackend() *backend {
	return &backend{
		nodes: map[string]map[string]any{},
	}
}

func (b *backend) Children(ctx context.Context, path string) ([]realtime.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	children := b.nodes[path]
	out := make([]realtime.Entry, 0, len(children))
	for key, value := range children {
		out = append(out, realtime.Entry{Key: key, Value: value})
	}
	return out, nil
}

func (b *backend) Get(ctx context.Context, path, key string) (any, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.nodes[path][key]
	return value, ok, nil
}

func (b *backend) Put(ctx context.Context, path, key string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	children, ok := b.nodes[path]
	if !ok {
		children = map[string]any{}
		b.nodes[path] = children
	}
	children[key] = value
	return nil
}

func (b *backend) Delete(ctx context.Context, path, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.nodes[path], key)
	if len(b.nodes[path]) == 0 {
		delete(b.nodes, path)
	}
	return nil
}
