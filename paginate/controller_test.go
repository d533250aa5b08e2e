package paginate

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-playground/assert/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/ayn2op/soilview/realtime"
	"github.com/ayn2op/soilview/realtime/memdb"
)

func init() {
	flag.Set("logtostderr", "true")
	flag.Set("v", "0")
}

// queue is an unbounded Scheduler drained by the test goroutine.
type queue struct {
	mu    sync.Mutex
	funcs []func()
	wake  chan struct{}
}

func newQueue() *queue {
	return &queue{wake: make(chan struct{}, 1)}
}

func (q *queue) Post(f func()) {
	q.mu.Lock()
	q.funcs = append(q.funcs, f)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.funcs) == 0 {
		return nil, false
	}
	f := q.funcs[0]
	q.funcs = q.funcs[1:]
	return f, true
}

// drain runs everything posted so far.
func (q *queue) drain() {
	for {
		f, ok := q.pop()
		if !ok {
			return
		}
		f()
	}
}

// await waits for at least one posted func, then drains.
func (q *queue) await(t *testing.T) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if f, ok := q.pop(); ok {
			f()
			q.drain()
			return
		}
		select {
		case <-q.wake:
		case <-deadline:
			t.Fatal("timed out waiting for a posted result")
		}
	}
}

// db counts range queries and can hold them until released.
type db struct {
	*memdb.DB
	queries atomic.Int32
	hold    chan struct{}
	fail    error
	// runs between a range query and the listener attached for its page
	beforeAttach func()
}

func (d *db) AttachChildListener(path string, r realtime.Range, l realtime.Listener) (realtime.Unsubscribe, error) {
	if d.beforeAttach != nil {
		d.beforeAttach()
	}
	return d.DB.AttachChildListener(path, r, l)
}

func newDB() *db {
	return &db{DB: memdb.New()}
}

func (d *db) RangeQuery(ctx context.Context, path string, r realtime.Range) ([]realtime.Entry, error) {
	d.queries.Add(1)
	if d.hold != nil {
		<-d.hold
	}
	if d.fail != nil {
		return nil, d.fail
	}
	return d.DB.RangeQuery(ctx, path, r)
}

const listPath = "publicDataList/message"

func (d *db) seed(t *testing.T, keys ...string) {
	t.Helper()
	for i, key := range keys {
		assert.Equal(t, d.Set(context.Background(), listPath, key, i+1), nil)
	}
}

func identity(sort Sort, p *Pagination) Identity {
	return Identity{
		Selector:   realtime.PublicList{},
		DataType:   "message",
		Sort:       sort,
		Pagination: p,
	}
}

func entryKeys(entries []realtime.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func visible(keys ...string) mapset.Set[string] {
	return mapset.NewThreadUnsafeSet(keys...)
}

func TestShortFirstPageExhausts(t *testing.T) {
	d := newDB()
	d.seed(t, "a", "b")
	q := newQueue()
	c := NewController(d, q)

	c.SetIdentity(identity(CreatedOldest, &Pagination{Amount: 3, Buffer: 1}))
	assert.Equal(t, c.State(), StateInitialLoad)
	q.await(t)
	assert.Equal(t, c.State(), StateExhausted)
	assert.Equal(t, entryKeys(c.Entries()), []string{"a", "b"})

	c.SetVisible(visible("a", "b"))
	q.drain()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, d.queries.Load(), int32(1))
	assert.Equal(t, c.State(), StateExhausted)
	assert.Equal(t, c.Marker() == nil, true)
}

func TestRemovedBeforeListening(t *testing.T) {
	d := newDB()
	d.seed(t, "a", "b", "c")
	d.beforeAttach = func() {
		assert.Equal(t, d.Delete(context.Background(), listPath, "b"), nil)
	}
	q := newQueue()
	c := NewController(d, q)

	c.SetIdentity(identity(CreatedOldest, nil))
	q.await(t)
	assert.Equal(t, c.State(), StateExhausted)
	if diff := cmp.Diff([]string{"a", "c"}, entryKeys(c.Entries())); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	d.beforeAttach = nil
	assert.Equal(t, d.Set(context.Background(), listPath, "b", 2), nil)
	q.await(t)
	assert.Equal(t, entryKeys(c.Entries()), []string{"a", "b", "c"})
}

func TestPagesUntilExhausted(t *testing.T) {
	d := newDB()
	d.seed(t, "k1", "k2", "k3", "k4", "k5")
	q := newQueue()
	var changes int
	c := NewController(d, q).SetChangedFunc(func() { changes++ })

	c.SetIdentity(identity(CreatedOldest, &Pagination{Amount: 2, Buffer: 1}))
	q.await(t)
	assert.Equal(t, c.State(), StateListening)
	assert.Equal(t, entryKeys(c.Entries()), []string{"k1", "k2"})

	// k1 is outside the buffer
	c.SetVisible(visible("k1"))
	assert.Equal(t, c.State(), StateListening)
	assert.Equal(t, d.queries.Load(), int32(1))

	c.SetVisible(visible("k1", "k2"))
	assert.Equal(t, c.State(), StateFetchingNextPage)
	assert.Equal(t, c.Marker() == nil, true)
	q.await(t)
	assert.Equal(t, c.State(), StateListening)
	assert.Equal(t, c.Pages(), 2)
	assert.Equal(t, entryKeys(c.Entries()), []string{"k1", "k2", "k3", "k4"})

	c.SetVisible(visible("k4"))
	q.await(t)
	assert.Equal(t, c.State(), StateExhausted)
	assert.Equal(t, entryKeys(c.Entries()), []string{"k1", "k2", "k3", "k4", "k5"})

	for _, k := range []string{"k3", "k4", "k5"} {
		c.SetVisible(visible(k))
	}
	q.drain()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, d.queries.Load(), int32(3))
	assert.NotEqual(t, changes, 0)
}

func TestOneFetchInFlight(t *testing.T) {
	d := newDB()
	d.seed(t, "k1", "k2", "k3", "k4")
	q := newQueue()
	c := NewController(d, q)
	c.SetIdentity(identity(CreatedOldest, &Pagination{Amount: 2, Buffer: 2}))
	q.await(t)

	d.hold = make(chan struct{})
	c.SetVisible(visible("k2"))
	c.SetVisible(visible("k1"))
	c.SetVisible(visible("k1", "k2"))
	c.SetVisible(visible("k2"))
	assert.Equal(t, c.State(), StateFetchingNextPage)

	close(d.hold)
	q.await(t)
	assert.Equal(t, d.queries.Load(), int32(2))
	assert.Equal(t, entryKeys(c.Entries()), []string{"k1", "k2", "k3", "k4"})
}

func TestNewestFirst(t *testing.T) {
	d := newDB()
	d.seed(t, "k1", "k2", "k3")
	q := newQueue()
	c := NewController(d, q)

	c.SetIdentity(identity(CreatedNewest, &Pagination{Amount: 2, Buffer: 1}))
	q.await(t)
	assert.Equal(t, entryKeys(c.Entries()), []string{"k3", "k2"})

	c.SetVisible(visible("k2"))
	q.await(t)
	assert.Equal(t, c.State(), StateExhausted)
	assert.Equal(t, entryKeys(c.Entries()), []string{"k3", "k2", "k1"})

	// a new message lands at the top through the first page's listener
	assert.Equal(t, d.Set(context.Background(), listPath, "k4", 4), nil)
	q.drain()
	assert.Equal(t, entryKeys(c.Entries()), []string{"k4", "k3", "k2", "k1"})
}

func TestUpdatedSortMovesEntries(t *testing.T) {
	d := newDB()
	d.seed(t, "a", "b", "c")
	q := newQueue()
	c := NewController(d, q)
	c.SetIdentity(identity(UpdatedNewest, nil))
	q.await(t)
	assert.Equal(t, entryKeys(c.Entries()), []string{"c", "b", "a"})

	assert.Equal(t, d.Set(context.Background(), listPath, "a", 10), nil)
	q.drain()
	if diff := cmp.Diff([]string{"a", "c", "b"}, entryKeys(c.Entries())); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
	v, _ := c.store.Get("a")
	assert.Equal(t, v, 10)
}

func TestFullPageWindow(t *testing.T) {
	d := newDB()
	d.seed(t, "k1", "k2", "k3")
	q := newQueue()
	c := NewController(d, q)
	c.SetIdentity(identity(CreatedOldest, &Pagination{Amount: 2, Buffer: 1}))
	q.await(t)

	ctx := context.Background()
	// before the first entry: inside the first page's window
	assert.Equal(t, d.Set(ctx, listPath, "k0", 0), nil)
	// past the loaded pages: not seen until its page is fetched
	assert.Equal(t, d.Set(ctx, listPath, "k9", 9), nil)
	q.drain()
	assert.Equal(t, entryKeys(c.Entries()), []string{"k0", "k1", "k2"})

	assert.Equal(t, d.Delete(ctx, listPath, "k1"), nil)
	q.drain()
	assert.Equal(t, entryKeys(c.Entries()), []string{"k0", "k2"})
}

func TestWithoutPagination(t *testing.T) {
	d := newDB()
	var keys []string
	for i := 0; i < 30; i++ {
		keys = append(keys, fmt.Sprintf("k%02d", i))
	}
	d.seed(t, keys...)
	q := newQueue()
	c := NewController(d, q)
	c.SetIdentity(identity(CreatedOldest, nil))
	q.await(t)
	assert.Equal(t, c.State(), StateExhausted)
	assert.Equal(t, entryKeys(c.Entries()), keys)
	assert.Equal(t, c.Marker() == nil, true)
}

func TestStartEdge(t *testing.T) {
	d := newDB()
	d.seed(t, "k1", "k2", "k3", "k4")
	q := newQueue()
	c := NewController(d, q)
	id := identity(CreatedOldest, &Pagination{Amount: 2, Buffer: 1})
	id.StartEdge = &realtime.Bound{Value: "k2"}
	c.SetIdentity(id)
	q.await(t)
	assert.Equal(t, entryKeys(c.Entries()), []string{"k2", "k3"})

	assert.Equal(t, d.Set(context.Background(), listPath, "k0", 0), nil)
	q.drain()
	assert.Equal(t, entryKeys(c.Entries()), []string{"k2", "k3"})
}

func TestIgnoreNonStartingEdgeAdditions(t *testing.T) {
	d := newDB()
	d.seed(t, "k1", "k2", "k3")
	q := newQueue()
	c := NewController(d, q)
	id := identity(CreatedOldest, &Pagination{Amount: 2, Buffer: 1})
	id.IgnoreNonStartingEdgeAdditions = true
	c.SetIdentity(id)
	q.await(t)
	c.SetVisible(visible("k2"))
	q.await(t)
	assert.Equal(t, c.State(), StateExhausted)
	assert.Equal(t, entryKeys(c.Entries()), []string{"k1", "k2", "k3"})

	assert.Equal(t, d.Set(context.Background(), listPath, "k4", 4), nil)
	q.drain()
	assert.Equal(t, entryKeys(c.Entries()), []string{"k1", "k2", "k3"})
}

func TestTeardownIgnoresLateResults(t *testing.T) {
	d := newDB()
	d.seed(t, "a")
	d.hold = make(chan struct{})
	q := newQueue()
	c := NewController(d, q)

	c.SetIdentity(identity(CreatedOldest, &Pagination{Amount: 2}))
	c.Close()
	close(d.hold)
	q.await(t)
	assert.Equal(t, c.State(), StateIdle)
	assert.Equal(t, len(c.Entries()), 0)
	assert.Equal(t, c.Loaded(), false)

	// nothing is listening any more
	assert.Equal(t, d.Set(context.Background(), listPath, "b", 2), nil)
	q.drain()
	assert.Equal(t, len(c.Entries()), 0)
}

func TestIdentityChange(t *testing.T) {
	d := newDB()
	d.seed(t, "a", "b")
	ctx := context.Background()
	userPath := realtime.UserDataListPath("u1", "message")
	assert.Equal(t, d.Set(ctx, userPath, "mine", 1), nil)
	q := newQueue()
	c := NewController(d, q)

	c.SetIdentity(identity(CreatedOldest, nil))
	q.await(t)
	assert.Equal(t, entryKeys(c.Entries()), []string{"a", "b"})

	// same identity: nothing happens
	c.SetIdentity(identity(CreatedOldest, nil))
	assert.Equal(t, c.State(), StateExhausted)
	assert.Equal(t, d.queries.Load(), int32(1))

	c.SetIdentity(Identity{Selector: realtime.UserList{}, DataType: "message", UserID: "u1"})
	assert.Equal(t, len(c.Entries()), 0)
	q.await(t)
	assert.Equal(t, c.Path(), userPath)
	assert.Equal(t, entryKeys(c.Entries()), []string{"mine"})

	// the previous list's listener is gone
	assert.Equal(t, d.Set(ctx, listPath, "c", 3), nil)
	q.drain()
	assert.Equal(t, entryKeys(c.Entries()), []string{"mine"})

	id := c.Identity()
	id.Disabled = true
	c.SetIdentity(id)
	assert.Equal(t, c.State(), StateIdle)
	assert.Equal(t, len(c.Entries()), 0)
}

func TestConfigErrors(t *testing.T) {
	d := newDB()
	q := newQueue()
	var reported []error
	c := NewController(d, q).SetErrorFunc(func(err error) { reported = append(reported, err) })

	c.SetIdentity(identity(CreatedOldest, &Pagination{Buffer: 2}))
	assert.Equal(t, c.State(), StateIdle)
	assert.Equal(t, errors.Is(c.Err(), ErrNoAmount), true)

	c.SetIdentity(Identity{Selector: realtime.UserList{}, DataType: "message"})
	assert.Equal(t, c.State(), StateIdle)
	assert.Equal(t, errors.Is(c.Err(), realtime.ErrUnresolvedPath), true)

	assert.Equal(t, len(reported), 2)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, d.queries.Load(), int32(0))
}

func TestFetchFailure(t *testing.T) {
	d := newDB()
	d.fail = errors.New("permission denied")
	q := newQueue()
	c := NewController(d, q)
	c.SetIdentity(identity(CreatedOldest, &Pagination{Amount: 2}))
	q.await(t)
	assert.Equal(t, c.State(), StateIdle)
	assert.Equal(t, errors.Is(c.Err(), d.fail), true)
	assert.Equal(t, c.Loaded(), false)
}

func TestNextPageFailureKeepsLoadedPages(t *testing.T) {
	d := newDB()
	d.seed(t, "k1", "k2", "k3")
	q := newQueue()
	c := NewController(d, q)
	c.SetIdentity(identity(CreatedOldest, &Pagination{Amount: 2, Buffer: 1}))
	q.await(t)

	d.fail = errors.New("offline")
	c.SetVisible(visible("k2"))
	q.await(t)
	assert.Equal(t, c.State(), StateListening)
	assert.Equal(t, c.Pages(), 1)
	assert.Equal(t, entryKeys(c.Entries()), []string{"k1", "k2"})
	assert.NotEqual(t, c.Err(), nil)
}

func TestSort(t *testing.T) {
	s, ok := ParseSort("updated newest")
	assert.Equal(t, ok, true)
	assert.Equal(t, s, UpdatedNewest)
	assert.Equal(t, s.String(), "updated newest")
	assert.Equal(t, s.Direction(), realtime.LimitToLast)
	assert.Equal(t, s.Ordering(), realtime.Ordering{By: realtime.OrderByValue})

	child := ChildSort("rank", false)
	assert.Equal(t, child.Ordering(), realtime.Ordering{By: realtime.OrderByChild, Child: "rank"})
	assert.Equal(t, child.String(), "child rank asc")

	s, ok = ParseSort("child rank desc")
	assert.Equal(t, ok, true)
	assert.Equal(t, s, ChildSort("rank", true))

	for _, bad := range []string{"random", "child rank", "child  asc", "child rank up"} {
		_, ok = ParseSort(bad)
		assert.Equal(t, ok, false)
	}
}
