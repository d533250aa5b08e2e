// Package realtime describes the hierarchical key/value realtime database that
// lists are built on: one-shot ordered range queries, live child listeners
// scoped to an ordering window, and single value lookups.
//
// The package also carries a small reference client ([Client]) that turns any
// [Backend] into a [Database], diffing windowed snapshots into
// added/changed/removed events the way the hosted database does.
package realtime

import (
	"context"
)

// Entry is one child of a list: its key and either the index value (an
// ordering scalar such as an "updated at" timestamp) or the full value.
type Entry struct {
	Key   string
	Value any
}

// Listener receives child events for one attached window. Predecessor is the
// key of the entry immediately before Key in ascending order, or nil when Key
// is the first entry of the window.
type Listener struct {
	OnAdded   func(key string, value any, predecessor *string)
	OnChanged func(key string, value any, predecessor *string)
	OnRemoved func(key string)
}

// Unsubscribe detaches a listener. Calling it more than once is harmless.
type Unsubscribe func()

// Database is the realtime database client consumed by lists.
type Database interface {
	// RangeQuery returns the children of path inside r, in ascending order.
	RangeQuery(ctx context.Context, path string, r Range) ([]Entry, error)
	// AttachChildListener streams child events for the children of path
	// inside r until the returned function is called. Existing children are
	// reported as added before it returns.
	AttachChildListener(path string, r Range, l Listener) (Unsubscribe, error)
	// GetValue fetches the full value stored for key under dataType. ok is
	// false when nothing is stored there.
	GetValue(ctx context.Context, dataType, key string) (value any, ok bool, err error)
}

// Backend is the storage a [Client] reads and writes.
type Backend interface {
	Children(ctx context.Context, path string) ([]Entry, error)
	Get(ctx context.Context, path, key string) (any, bool, error)
	Put(ctx context.Context, path, key string, value any) error
	Delete(ctx context.Context, path, key string) error
}
