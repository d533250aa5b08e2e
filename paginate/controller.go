// Package paginate loads a realtime list page by page as its end comes into
// view, and keeps every loaded page live.
package paginate

import (
	"context"
	"slices"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ayn2op/soilview/metrics"
	"github.com/ayn2op/soilview/pages"
	"github.com/ayn2op/soilview/realtime"
)

// Scheduler runs funcs on the goroutine that owns the controller, in the
// order they were posted. Post must not block.
type Scheduler interface {
	Post(func())
}

// Controller drives the loading of one list. Every event goes through
// [Controller.Dispatch], which must only be called on the scheduler's
// goroutine; database results and child events are posted back to it.
type Controller struct {
	db      realtime.Database
	sched   Scheduler
	metrics *metrics.Metrics

	id    Identity
	set   bool
	path  string
	state State
	err   error

	store *pages.Store
	// number of pages fetched so far
	pages   int
	loaded  bool
	visible mapset.Set[string]
	marker  *realtime.Bound

	listeners []realtime.Unsubscribe
	// bumped by every teardown; results of an older generation are dropped
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc

	changed func()
	onError func(error)
}

func NewController(db realtime.Database, sched Scheduler) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		db:      db,
		sched:   sched,
		store:   pages.NewStore(),
		visible: mapset.NewThreadUnsafeSet[string](),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *Controller) SetMetrics(m *metrics.Metrics) *Controller {
	c.metrics = m
	return c
}

// SetChangedFunc sets the handler called whenever the loaded entries or the
// state change.
func (c *Controller) SetChangedFunc(handler func()) *Controller {
	c.changed = handler
	return c
}

// SetErrorFunc sets the handler called with configuration errors and failed
// fetches.
func (c *Controller) SetErrorFunc(handler func(error)) *Controller {
	c.onError = handler
	return c
}

func (c *Controller) State() State {
	return c.state
}

// Err returns the last error, cleared when the identity changes.
func (c *Controller) Err() error {
	return c.err
}

// Loaded reports whether the first page has been loaded.
func (c *Controller) Loaded() bool {
	return c.loaded
}

func (c *Controller) Identity() Identity {
	return c.id
}

// Path returns the storage path of the loaded list.
func (c *Controller) Path() string {
	return c.path
}

// Pages returns the number of pages loaded.
func (c *Controller) Pages() int {
	return c.pages
}

// Marker returns the bound the next page would start after, if one of the
// last buffered keys is visible.
func (c *Controller) Marker() *realtime.Bound {
	return c.marker
}

// Entries returns the loaded list in display order.
func (c *Controller) Entries() []realtime.Entry {
	return c.store.MergedView(c.id.Sort.Direction(), c.id.Sort.Desc)
}

// SetIdentity dispatches [IdentityChanged].
func (c *Controller) SetIdentity(id Identity) {
	c.Dispatch(IdentityChanged{Identity: id})
}

// SetVisible dispatches [VisibilityChanged].
func (c *Controller) SetVisible(visible mapset.Set[string]) {
	c.Dispatch(VisibilityChanged{Visible: visible})
}

// Close dispatches [Teardown].
func (c *Controller) Close() {
	c.Dispatch(Teardown{})
}

// Dispatch handles one event.
func (c *Controller) Dispatch(ev Event) {
	switch ev := ev.(type) {
	case IdentityChanged:
		if c.set && ev.Identity.Equal(c.id) {
			return
		}
		c.teardown()
		c.id = ev.Identity
		c.set = true
		c.setup()
		c.notify()
	case VisibilityChanged:
		c.visible = ev.Visible
		if c.visible == nil {
			c.visible = mapset.NewThreadUnsafeSet[string]()
		}
		c.evaluate()
	case Teardown:
		c.teardown()
		c.notify()
	case fetchCompleted:
		if ev.gen != c.gen {
			return
		}
		c.completed(ev)
	case childAdded:
		if ev.gen != c.gen {
			return
		}
		if ev.page > 0 && c.id.IgnoreNonStartingEdgeAdditions {
			return
		}
		glog.V(2).Infof("[paginate]added %s to page %d\n", ev.key, ev.page)
		c.store.ApplyAdd(ev.page, ev.key, ev.value, ev.predecessor)
		c.evaluate()
		c.notify()
	case childChanged:
		if ev.gen != c.gen {
			return
		}
		glog.V(2).Infof("[paginate]changed %s in page %d\n", ev.key, ev.page)
		c.store.ApplyAdd(ev.page, ev.key, ev.value, ev.predecessor)
		c.evaluate()
		c.notify()
	case childRemoved:
		if ev.gen != c.gen {
			return
		}
		glog.V(2).Infof("[paginate]removed %s from page %d\n", ev.key, ev.page)
		if c.store.ApplyRemove(ev.page, ev.key) {
			c.evaluate()
			c.notify()
		}
	}
}

func (c *Controller) setup() {
	if c.id.Disabled {
		glog.V(1).Infof("[paginate]%s list disabled\n", c.id.DataType)
		return
	}
	path, err := realtime.ResolvePath(c.id.Selector, c.id.DataType, c.id.UserID)
	if err != nil {
		c.fail(err)
		return
	}
	if p := c.id.Pagination; p != nil {
		if err := p.Validate(); err != nil {
			c.fail(err)
			return
		}
	}
	c.path = path
	c.state = StateInitialLoad
	glog.Infof("[paginate]load %s sort=%s\n", path, c.id.Sort)

	r := c.window()
	setStart(&r, c.id.StartEdge)
	if p := c.id.Pagination; p != nil {
		r.Limit = p.Amount
	}
	c.fetch(0, r)
}

// teardown detaches every listener and drops the loaded list. Results still
// in flight are ignored once they arrive.
func (c *Controller) teardown() {
	c.gen++
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	for _, unsubscribe := range c.listeners {
		unsubscribe()
		c.metrics.ListenerDetached()
	}
	if c.path != "" {
		glog.Infof("[paginate]teardown %s, %d listeners\n", c.path, len(c.listeners))
	}
	c.listeners = nil
	c.store.Reset()
	c.pages = 0
	c.loaded = false
	c.marker = nil
	c.path = ""
	c.err = nil
	c.set = false
	c.state = StateIdle
}

func (c *Controller) fail(err error) {
	c.err = err
	glog.Errorf("[paginate]%s: %v\n", c.id.DataType, err)
	if c.onError != nil {
		c.onError(err)
	}
}

// window returns an unbounded range in the list's order.
func (c *Controller) window() realtime.Range {
	return realtime.Range{
		Order:     c.id.Sort.Ordering(),
		Direction: c.id.Sort.Direction(),
	}
}

// setStart bounds r at the end pages are fetched from.
func setStart(r *realtime.Range, b *realtime.Bound) {
	if r.Direction == realtime.LimitToLast {
		r.High = b
	} else {
		r.Low = b
	}
}

// setEnd bounds r at the end pages are fetched toward.
func setEnd(r *realtime.Range, b *realtime.Bound) {
	if r.Direction == realtime.LimitToLast {
		r.Low = b
	} else {
		r.High = b
	}
}

func (c *Controller) fetch(page int, r realtime.Range) {
	ctx, gen, path := c.ctx, c.gen, c.path
	glog.V(2).Infof("[paginate]fetch page %d of %s\n", page, path)
	go func() {
		entries, err := c.db.RangeQuery(ctx, path, r)
		c.sched.Post(func() {
			c.Dispatch(fetchCompleted{gen: gen, page: page, window: r, entries: entries, err: err})
		})
	}()
}

func (c *Controller) completed(ev fetchCompleted) {
	if ev.err != nil {
		err := errors.Wrapf(ev.err, "fetch page %d of %s", ev.page, c.path)
		c.metrics.PageFetched(metrics.ResultError)
		if ev.page == 0 {
			c.state = StateIdle
		} else {
			c.state = StateListening
		}
		c.fail(err)
		c.notify()
		return
	}

	p := c.id.Pagination
	exhausted := p == nil || len(ev.entries) < p.Amount

	// The page listener covers the page's range without a limit. A full page
	// ends at its last entry; a short one stays open toward the far end so
	// later additions there are seen.
	listen := ev.window
	listen.Limit = 0
	if !exhausted {
		boundary := ev.entries[len(ev.entries)-1]
		if listen.Direction == realtime.LimitToLast {
			boundary = ev.entries[0]
		}
		setEnd(&listen, realtime.BoundOf(listen.Order, boundary))
	}
	// The listener's first report is the page as of attaching. Entries of the
	// query result it does not report were removed in between and would never
	// see a removal.
	confirmed := mapset.NewSet[string]()
	var attaching atomic.Bool
	attaching.Store(true)
	l := c.listener(ev.page)
	onAdded := l.OnAdded
	l.OnAdded = func(key string, value any, predecessor *string) {
		if attaching.Load() {
			confirmed.Add(key)
		}
		onAdded(key, value, predecessor)
	}
	unsubscribe, err := c.db.AttachChildListener(c.path, listen, l)
	attaching.Store(false)
	if err != nil {
		c.metrics.PageFetched(metrics.ResultError)
		if ev.page == 0 {
			c.state = StateIdle
		} else {
			c.state = StateListening
		}
		c.fail(errors.Wrapf(err, "listen to page %d of %s", ev.page, c.path))
		c.notify()
		return
	}
	c.listeners = append(c.listeners, unsubscribe)
	c.metrics.ListenerAttached()

	seed := slices.DeleteFunc(slices.Clone(ev.entries), func(e realtime.Entry) bool {
		return !confirmed.Contains(e.Key)
	})
	if dropped := len(ev.entries) - len(seed); dropped > 0 {
		glog.V(2).Infof("[paginate]%d entries of page %d of %s gone before listening\n", dropped, ev.page, c.path)
	}
	c.store.Seed(ev.page, seed)
	c.pages = ev.page + 1
	c.loaded = true
	if exhausted {
		c.state = StateExhausted
		c.metrics.PageFetched(metrics.ResultExhausted)
		glog.Infof("[paginate]%s exhausted after %d pages\n", c.path, c.pages)
	} else {
		c.state = StateListening
		c.metrics.PageFetched(metrics.ResultOK)
	}
	c.evaluate()
	c.notify()
}

func (c *Controller) listener(page int) realtime.Listener {
	gen := c.gen
	return realtime.Listener{
		OnAdded: func(key string, value any, predecessor *string) {
			c.sched.Post(func() {
				c.Dispatch(childAdded{gen: gen, page: page, key: key, value: value, predecessor: predecessor})
			})
		},
		OnChanged: func(key string, value any, predecessor *string) {
			c.sched.Post(func() {
				c.Dispatch(childChanged{gen: gen, page: page, key: key, value: value, predecessor: predecessor})
			})
		},
		OnRemoved: func(key string) {
			c.sched.Post(func() {
				c.Dispatch(childRemoved{gen: gen, page: page, key: key})
			})
		},
	}
}

// evaluate recomputes the marker from the loaded list and the visible keys,
// and starts the next page when the marker is set and nothing is in flight.
func (c *Controller) evaluate() {
	p := c.id.Pagination
	if p == nil || c.state == StateExhausted || c.state == StateIdle || c.state == StateInitialLoad {
		c.marker = nil
		return
	}

	// scan order: from the edge pages are fetched from
	scan := c.store.MergedView(c.id.Sort.Direction(), false)
	if c.id.Sort.Direction() == realtime.LimitToLast {
		slices.Reverse(scan)
	}
	c.marker = nil
	if len(scan) == 0 {
		return
	}
	tail := scan[max(0, len(scan)-p.buffer()):]
	for _, e := range tail {
		if c.visible.Contains(e.Key) {
			c.marker = realtime.BoundOf(c.id.Sort.Ordering(), scan[len(scan)-1])
			break
		}
	}

	if c.marker != nil && c.state == StateListening {
		c.fetchNext()
	}
}

func (c *Controller) fetchNext() {
	marker := c.marker
	c.marker = nil
	c.state = StateFetchingNextPage

	r := c.window()
	r.Limit = c.id.Pagination.Amount
	setStart(&r, marker.After())
	c.fetch(c.pages, r)
}

func (c *Controller) notify() {
	if c.changed != nil {
		c.changed()
	}
}
