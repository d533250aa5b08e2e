package soilview

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-playground/assert/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/ayn2op/soilview/hydrate"
	"github.com/ayn2op/soilview/paginate"
	"github.com/ayn2op/soilview/realtime"
	"github.com/ayn2op/soilview/realtime/memdb"
)

func init() {
	flag.Set("logtostderr", "true")
	flag.Set("v", "0")
}

const notesPath = "publicDataList/note"

// queue is a Scheduler run by the test goroutine.
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

func (q *queue) drain() {
	for {
		q.mu.Lock()
		if len(q.funcs) == 0 {
			q.mu.Unlock()
			return
		}
		f := q.funcs[0]
		q.funcs = q.funcs[1:]
		q.mu.Unlock()
		f()
	}
}

type harness struct {
	t      *testing.T
	q      *queue
	screen tcell.SimulationScreen
	list   *ObserverList
}

func newHarness(t *testing.T, db realtime.Database, width, height int) *harness {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	assert.Equal(t, screen.Init(), nil)
	t.Cleanup(screen.Fini)
	screen.SetSize(width, height)

	q := newQueue()
	list := NewObserverList(db, q)
	list.SetRect(0, 0, width, height)
	t.Cleanup(list.Close)
	return &harness{t: t, q: q, screen: screen, list: list}
}

func (h *harness) draw() {
	h.list.Draw(h.screen)
	h.screen.Show()
	h.q.drain()
}

// settle draws and runs posted results until cond holds.
func (h *harness) settle(cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		h.draw()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatal("list did not settle")
		}
		select {
		case <-h.q.wake:
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (h *harness) rows() []string {
	cells, width, height := h.screen.GetContents()
	rows := make([]string, height)
	for y := range height {
		var b strings.Builder
		for x := range width {
			b.WriteString(string(cells[y*width+x].Runes))
		}
		rows[y] = strings.TrimRight(b.String(), " ")
	}
	return rows
}

func keyBuilder(props ItemProps) ListItem {
	return NewTextItem(props.Key)
}

func seedNotes(t *testing.T, db *memdb.DB, n int) []string {
	t.Helper()
	ctx := context.Background()
	keys := make([]string, n)
	for i := range n {
		keys[i] = fmt.Sprintf("k%02d", i+1)
		assert.Equal(t, db.Set(ctx, notesPath, keys[i], i+1), nil)
		assert.Equal(t, db.Set(ctx, realtime.DataPath("note"), keys[i], "note "+keys[i]), nil)
	}
	return keys
}

func keysOf(entries []realtime.Entry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

func TestObserverListPagesAsScrolled(t *testing.T) {
	db := memdb.New()
	keys := seedNotes(t, db, 25)

	h := newHarness(t, db, 30, 5)
	h.list.SetOptions(ListOptions{
		Selector:              realtime.PublicList{},
		DataType:              "note",
		Sort:                  paginate.CreatedOldest,
		Pagination:            &paginate.Pagination{Amount: 10, Buffer: 2},
		HydrationBufferAmount: 1,
	})

	h.settle(func() bool {
		return h.list.Data("k01").State == hydrate.Ready
	})
	assert.Equal(t, h.list.State(), paginate.StateListening)
	if diff := cmp.Diff(keysOf(h.list.Entries()), keys[:10]); diff != "" {
		t.Fatalf("entries mismatch (-got +want):\n%s", diff)
	}
	// Rows 0-4 plus one row of margin are observed.
	assert.Equal(t, h.list.Observed("k06"), true)
	assert.Equal(t, h.list.Observed("k07"), false)
	assert.Equal(t, h.list.Data("k09").State, hydrate.Loading)
	assert.Equal(t, h.rows()[0], "k01  note k01")

	// The last two entries come into view: the second page is loaded.
	h.list.ScrollToEnd()
	h.settle(func() bool {
		return len(h.list.Entries()) == 20 && h.list.Data("k10").State == hydrate.Ready
	})
	assert.Equal(t, h.list.Data("k09").State, hydrate.Ready)

	h.list.ScrollToEnd()
	h.settle(func() bool {
		return h.list.State() == paginate.StateExhausted
	})
	if diff := cmp.Diff(keysOf(h.list.Entries()), keys); diff != "" {
		t.Fatalf("entries mismatch (-got +want):\n%s", diff)
	}
}

// holdDB holds range queries until released.
type holdDB struct {
	*memdb.DB
	hold chan struct{}
}

func (d *holdDB) RangeQuery(ctx context.Context, path string, r realtime.Range) ([]realtime.Entry, error) {
	<-d.hold
	return d.DB.RangeQuery(ctx, path, r)
}

func TestObserverListSlots(t *testing.T) {
	db := &holdDB{DB: memdb.New(), hold: make(chan struct{})}
	h := newHarness(t, db, 20, 3)
	h.list.
		SetItemBuilder(keyBuilder).
		SetEmpty(NewTextItem("nothing here")).
		SetPrefix(NewTextItem("> notes")).
		SetOptions(ListOptions{Selector: realtime.PublicList{}, DataType: "note"})

	h.draw()
	assert.Equal(t, h.list.State(), paginate.StateInitialLoad)
	assert.Equal(t, h.rows()[0], "Loading…")

	close(db.hold)
	h.settle(func() bool { return h.list.State() == paginate.StateExhausted })
	assert.Equal(t, h.rows()[0], "nothing here")

	assert.Equal(t, db.Set(context.Background(), notesPath, "a", 1), nil)
	h.settle(func() bool { return len(h.list.Entries()) == 1 })
	if diff := cmp.Diff(h.rows(), []string{"> notes", "a", ""}); diff != "" {
		t.Fatalf("rows mismatch (-got +want):\n%s", diff)
	}
}

func TestObserverListGroupingAndOmit(t *testing.T) {
	db := memdb.New()
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, db.Set(ctx, notesPath, "a", day.UnixMilli()), nil)
	assert.Equal(t, db.Set(ctx, notesPath, "b", day.Add(time.Hour).UnixMilli()), nil)
	assert.Equal(t, db.Set(ctx, notesPath, "c", day.Add(2*time.Hour).UnixMilli()), nil)
	assert.Equal(t, db.Set(ctx, notesPath, "d", day.Add(24*time.Hour).UnixMilli()), nil)

	h := newHarness(t, db, 20, 6)
	h.list.
		SetItemBuilder(keyBuilder).
		SetLocation(time.UTC).
		SetOptions(ListOptions{
			Selector: realtime.PublicList{},
			DataType: "note",
			OmitKeys: []string{"b"},
			Grouping: GroupByDay,
		})
	h.list.SetGrouping(GroupByDay, func(g Grouping, start time.Time) ListItem {
		return NewTextItem("# " + start.Format("2006-01-02"))
	})

	h.settle(func() bool { return len(h.list.Entries()) == 3 })
	want := []string{"# 2024-03-01", "a", "c", "# 2024-03-02", "d", ""}
	if diff := cmp.Diff(h.rows(), want); diff != "" {
		t.Fatalf("rows mismatch (-got +want):\n%s", diff)
	}
}

func TestObserverListNewestFirst(t *testing.T) {
	db := memdb.New()
	seedNotes(t, db, 3)

	h := newHarness(t, db, 20, 4)
	h.list.SetItemBuilder(keyBuilder).SetOptions(ListOptions{
		Selector: realtime.PublicList{},
		DataType: "note",
		Sort:     paginate.CreatedNewest,
	})
	h.settle(func() bool { return len(h.list.Entries()) == 3 })
	if diff := cmp.Diff(h.rows(), []string{"k03", "k02", "k01", ""}); diff != "" {
		t.Fatalf("rows mismatch (-got +want):\n%s", diff)
	}

	assert.Equal(t, db.Set(context.Background(), notesPath, "k04", 4), nil)
	h.settle(func() bool { return len(h.list.Entries()) == 4 })
	assert.Equal(t, h.rows()[1], "k03")
}

func TestObserverListNavigation(t *testing.T) {
	db := memdb.New()
	seedNotes(t, db, 3)

	h := newHarness(t, db, 20, 3)
	var selected []string
	var moves []int
	h.list.
		SetItemBuilder(keyBuilder).
		SetSelectedFunc(func(key string) { selected = append(selected, key) }).
		SetChangedFunc(func(index int) { moves = append(moves, index) }).
		SetOptions(ListOptions{Selector: realtime.PublicList{}, DataType: "note"})
	h.settle(func() bool { return len(h.list.Entries()) == 3 })

	key := func(k tcell.Key, r rune) *tcell.EventKey {
		return tcell.NewEventKey(k, r, tcell.ModNone)
	}
	assert.Equal(t, h.list.InputHandler(key(tcell.KeyDown, 0)), RedrawCommand{})
	h.list.InputHandler(key(tcell.KeyRune, 'j'))
	h.list.InputHandler(key(tcell.KeyDown, 0))
	assert.Equal(t, h.list.Cursor(), 2)
	h.list.InputHandler(key(tcell.KeyUp, 0))
	h.list.InputHandler(key(tcell.KeyEnter, 0))
	h.list.InputHandler(key(tcell.KeyRune, 'G'))
	h.list.InputHandler(key(tcell.KeyRune, 'g'))
	assert.Equal(t, h.list.InputHandler(key(tcell.KeyRune, 'x')), nil)

	assert.Equal(t, selected, []string{"k02"})
	assert.Equal(t, moves, []int{0, 1, 2, 1, 2, 0})

	h.draw()
	_, cmd := h.list.MouseHandler(MouseLeftClick, tcell.NewEventMouse(1, 2, tcell.ButtonPrimary, tcell.ModNone))
	assert.Equal(t, cmd, BatchCommand{SetFocusCommand{Target: h.list}, RedrawCommand{}})
	assert.Equal(t, h.list.Cursor(), 2)
	k, ok := h.list.SelectedKey()
	assert.Equal(t, ok, true)
	assert.Equal(t, k, "k03")
}

func TestObserverListSharedCache(t *testing.T) {
	db := memdb.New()
	seedNotes(t, db, 3)

	var calls atomic.Int32
	get := func(ctx context.Context, dataType, key string) (any, bool, error) {
		calls.Add(1)
		return "custom " + key, true, nil
	}
	cache := hydrate.NewCache()
	opts := ListOptions{Selector: realtime.PublicList{}, DataType: "note"}
	ready := func(l *ObserverList) func() bool {
		return func() bool {
			if len(l.Entries()) != 3 {
				return false
			}
			for _, e := range l.Entries() {
				if l.Data(e.Key).State != hydrate.Ready {
					return false
				}
			}
			return true
		}
	}

	first := newHarness(t, db, 20, 5)
	first.list.SetCustomGet(get).SetCache(cache).SetOptions(opts)
	first.settle(ready(first.list))
	assert.Equal(t, first.list.Data("k02").Value, "custom k02")
	assert.Equal(t, calls.Load(), int32(3))

	second := newHarness(t, db, 20, 5)
	second.list.SetCustomGet(get).SetCache(cache).SetOptions(opts)
	second.settle(ready(second.list))
	assert.Equal(t, calls.Load(), int32(3))
}

func TestObserverListAnimate(t *testing.T) {
	db := memdb.New()
	seedNotes(t, db, 2)

	h := newHarness(t, db, 20, 5)
	revealed := map[string]bool{}
	h.list.
		SetItemBuilder(func(props ItemProps) ListItem {
			revealed[props.Key] = props.Revealed
			return NewTextItem(props.Key)
		}).
		SetOptions(ListOptions{
			Selector:      realtime.PublicList{},
			DataType:      "note",
			Animate:       true,
			AnimationStep: time.Hour,
		})
	h.settle(func() bool { return len(h.list.Entries()) == 2 })
	// the entries arrived in the last pass; draw them once
	h.draw()
	assert.Equal(t, revealed, map[string]bool{"k01": true, "k02": false})
}

func TestObserverListObservePermanently(t *testing.T) {
	for _, permanent := range []bool{false, true} {
		t.Run(fmt.Sprint(permanent), func(t *testing.T) {
			db := memdb.New()
			seedNotes(t, db, 30)

			h := newHarness(t, db, 30, 5)
			h.list.SetOptions(ListOptions{
				Selector:              realtime.PublicList{},
				DataType:              "note",
				HydrationBufferAmount: 1,
				ObservePermanently:    permanent,
			})
			h.settle(func() bool { return h.list.Data("k01").State == hydrate.Ready })
			assert.Equal(t, h.list.Observed("k01"), true)

			h.list.ScrollToEnd()
			h.settle(func() bool { return h.list.Data("k30").State == hydrate.Ready })
			assert.Equal(t, h.list.Observed("k30"), true)
			assert.Equal(t, h.list.Observed("k01"), permanent)
			assert.Equal(t, h.list.Observed("k15"), false)

			// a different list starts from nothing observed
			h.list.SetDataType("other")
			h.list.Sync()
			assert.Equal(t, h.list.Observed("k01"), false)
			assert.Equal(t, h.list.Observed("k30"), false)
		})
	}
}

func TestObserverListConfigError(t *testing.T) {
	h := newHarness(t, memdb.New(), 20, 3)
	var got []error
	h.list.
		SetErrorFunc(func(err error) { got = append(got, err) }).
		SetOptions(ListOptions{Selector: realtime.UserList{}, DataType: "note"})
	h.draw()

	assert.Equal(t, h.list.State(), paginate.StateIdle)
	assert.Equal(t, errors.Is(h.list.Err(), realtime.ErrUnresolvedPath), true)
	assert.Equal(t, len(got), 1)

	// Same options: no new attempt.
	h.list.SetUserID("")
	h.draw()
	assert.Equal(t, len(got), 1)

	h.list.SetUserID("u1")
	h.draw()
	assert.Equal(t, h.list.Err(), nil)
}
