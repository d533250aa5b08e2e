// Package hydrate loads the full values of list items while they are visible.
package hydrate

import (
	"context"
	"reflect"

	"github.com/golang/glog"

	"github.com/ayn2op/soilview/metrics"
	"github.com/ayn2op/soilview/realtime"
)

// State is the load state of one item.
type State int

const (
	// Loading means no fetch has finished yet.
	Loading State = iota
	// Missing means the fetch found nothing, or failed.
	Missing
	// Ready means Value holds the item.
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Missing:
		return "missing"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Data is the hydrated value of an item.
type Data struct {
	State State
	Value any
	// Err is the error of the last fetch, if it failed.
	Err error
}

// Getter loads the value stored for key of dataType.
type Getter func(ctx context.Context, dataType, key string) (any, bool, error)

// Scheduler runs funcs on the goroutine that owns the hydrator.
type Scheduler interface {
	Post(func())
}

type item struct {
	visible  bool
	stamp    any
	stale    bool
	inFlight bool
	fetched  bool
	data     Data
}

// Hydrator fetches values for the visible keys of one list, at most one fetch
// per key at a time. A key whose stamp changes is fetched again, once, after
// the fetch in flight has finished.
//
// All methods must be called on the scheduler's goroutine.
type Hydrator struct {
	dataType string
	get      Getter
	cache    *Cache
	sched    Scheduler
	metrics  *metrics.Metrics

	items map[string]*item
	gen   uint64

	ctx    context.Context
	cancel context.CancelFunc

	changed func(key string)
	onError func(key string, err error)
}

// New returns a hydrator loading dataType values with get. db.GetValue is the
// usual getter.
func New(dataType string, get Getter, sched Scheduler) *Hydrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hydrator{
		dataType: dataType,
		get:      get,
		sched:    sched,
		items:    map[string]*item{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// FromDatabase adapts a database to a [Getter].
func FromDatabase(db realtime.Database) Getter {
	return db.GetValue
}

// SetCache shares fetched values through c.
func (h *Hydrator) SetCache(c *Cache) *Hydrator {
	h.cache = c
	return h
}

func (h *Hydrator) SetMetrics(m *metrics.Metrics) *Hydrator {
	h.metrics = m
	return h
}

// SetChangedFunc sets the handler called whenever the data of a key changes.
func (h *Hydrator) SetChangedFunc(handler func(key string)) *Hydrator {
	h.changed = handler
	return h
}

// SetErrorFunc sets the handler called for failed fetches.
func (h *Hydrator) SetErrorFunc(handler func(key string, err error)) *Hydrator {
	h.onError = handler
	return h
}

// Update records whether key is visible and its current stamp, typically the
// ordering value, and fetches when needed.
func (h *Hydrator) Update(key string, visible bool, stamp any) {
	it, ok := h.items[key]
	if !ok {
		it = &item{stamp: stamp, stale: true}
		if h.cache != nil {
			if d, ok := h.cache.Peek(h.dataType, key); ok && d.State == Ready {
				it.data = d
				it.stale = false
				it.fetched = true
			}
		}
		h.items[key] = it
	} else if !reflect.DeepEqual(it.stamp, stamp) {
		it.stamp = stamp
		it.stale = true
	}
	it.visible = visible
	if visible && it.stale && !it.inFlight {
		h.fetch(key, it)
	}
}

// Data returns what is known about key.
func (h *Hydrator) Data(key string) Data {
	if it, ok := h.items[key]; ok {
		return it.data
	}
	return Data{State: Loading}
}

// InFlight reports whether a fetch for key is running.
func (h *Hydrator) InFlight(key string) bool {
	it, ok := h.items[key]
	return ok && it.inFlight
}

// Forget drops key; a fetch in flight for it is ignored when it completes,
// even if key is added again meanwhile.
func (h *Hydrator) Forget(key string) {
	delete(h.items, key)
}

// Reset forgets every key and cancels the fetches in flight.
func (h *Hydrator) Reset() {
	h.cancel()
	h.gen++
	h.ctx, h.cancel = context.WithCancel(context.Background())
	clear(h.items)
}

func (h *Hydrator) fetch(key string, it *item) {
	it.inFlight = true
	it.stale = false
	refresh := it.fetched
	it.fetched = true
	ctx, gen := h.ctx, h.gen

	glog.V(2).Infof("[hydrate]fetch %s/%s\n", h.dataType, key)
	go func() {
		d, err := h.load(ctx, key, refresh)
		h.sched.Post(func() {
			h.done(gen, key, it, d, err)
		})
	}()
}

func (h *Hydrator) load(ctx context.Context, key string, refresh bool) (Data, error) {
	fetch := func(ctx context.Context) (any, bool, error) {
		return h.get(ctx, h.dataType, key)
	}
	if h.cache != nil && !refresh {
		return h.cache.Get(ctx, h.dataType, key, true, fetch)
	}
	value, ok, err := fetch(ctx)
	if err != nil {
		return Data{State: Missing, Err: err}, err
	}
	d := Data{State: Missing}
	if ok {
		d = Data{State: Ready, Value: value}
	}
	if h.cache != nil {
		h.cache.Set(h.dataType, key, d)
	}
	return d, nil
}

// done applies the result of a fetch started for fetched. A key forgotten
// and added again has a new item, which ignores the old fetch.
func (h *Hydrator) done(gen uint64, key string, fetched *item, d Data, err error) {
	if gen != h.gen {
		return
	}
	it, ok := h.items[key]
	if !ok || it != fetched {
		return
	}
	it.inFlight = false
	it.data = d

	switch {
	case err != nil:
		glog.Errorf("[hydrate]fetch %s/%s failed: %v\n", h.dataType, key, err)
		h.metrics.Hydrated(metrics.ResultError)
		if h.onError != nil {
			h.onError(key, err)
		}
	case d.State == Missing:
		h.metrics.Hydrated(metrics.ResultMissing)
	default:
		h.metrics.Hydrated(metrics.ResultOK)
	}
	if h.changed != nil {
		h.changed(key)
	}

	if it.stale && it.visible {
		h.fetch(key, it)
	}
}
