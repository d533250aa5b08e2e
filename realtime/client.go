package realtime

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Client is a [Database] over a [Backend]. Writes made through the client are
// published to the listeners attached through it.
type Client struct {
	backend Backend
	hub     *Hub

	// Writes and attaches are serialized so every listener sees snapshots in
	// write order.
	mu sync.RWMutex
}

var _ Database = (*Client)(nil)

func NewClient(backend Backend) *Client {
	return &Client{
		backend: backend,
		hub:     NewHub(),
	}
}

// RangeQuery implements [Database].
func (c *Client) RangeQuery(ctx context.Context, path string, r Range) ([]Entry, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	children, err := c.backend.Children(ctx, path)
	c.mu.RUnlock()
	if err != nil {
		return nil, errors.Wrapf(err, "range query %s", path)
	}
	return r.Apply(children), nil
}

// AttachChildListener implements [Database].
func (c *Client) AttachChildListener(path string, r Range, l Listener) (Unsubscribe, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	children, err := c.backend.Children(context.Background(), path)
	if err != nil {
		return nil, errors.Wrapf(err, "attach %s", path)
	}
	glog.V(2).Infof("[realtime]attach %s order=%s limit=%d\n", path, r.Order.By, r.Limit)
	return c.hub.Subscribe(path, r, l, children), nil
}

// GetValue implements [Database].
func (c *Client) GetValue(ctx context.Context, dataType, key string) (any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok, err := c.backend.Get(ctx, DataPath(dataType), key)
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %s/%s", dataType, key)
	}
	return value, ok, nil
}

// Set stores value at key under path and notifies listeners of path.
func (c *Client) Set(ctx context.Context, path, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.Put(ctx, path, key, value); err != nil {
		return errors.Wrapf(err, "set %s/%s", path, key)
	}
	return c.publish(ctx, path)
}

// Delete removes key under path and notifies listeners of path.
func (c *Client) Delete(ctx context.Context, path, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.Delete(ctx, path, key); err != nil {
		return errors.Wrapf(err, "delete %s/%s", path, key)
	}
	return c.publish(ctx, path)
}

// Push stores value under a new push key and returns the key.
func (c *Client) Push(ctx context.Context, path string, value any) (string, error) {
	key := NewPushKey()
	if err := c.Set(ctx, path, key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (c *Client) publish(ctx context.Context, path string) error {
	if !c.hub.Watched(path) {
		return nil
	}
	children, err := c.backend.Children(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "publish %s", path)
	}
	c.hub.Publish(path, children)
	return nil
}
