package realtime

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Hub fans snapshots of a path's children out to the listeners attached to
// it. Each listener sees the difference between the previous and the current
// contents of its own window.
//
// Publish and Subscribe for one path must be serialized by the caller; the
// [Client] does so with its write lock.
type Hub struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string]map[uint64]*subscription
}

type subscription struct {
	r      Range
	l      Listener
	last   []Entry
	closed atomic.Bool
}

type childEventKind int

const (
	childAdded childEventKind = iota
	childChanged
	childRemoved
)

type childEvent struct {
	kind        childEventKind
	entry       Entry
	predecessor *string
}

func NewHub() *Hub {
	return &Hub{
		listeners: map[string]map[uint64]*subscription{},
	}
}

// Watched reports whether any listener is attached to path.
func (h *Hub) Watched(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[path]) > 0
}

// Subscribe attaches l to the r window of path and reports the current window
// contents (children) as added.
func (h *Hub) Subscribe(path string, r Range, l Listener, children []Entry) Unsubscribe {
	sub := &subscription{r: r, l: l}
	initial := r.Apply(children)
	sub.last = initial

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	subs, ok := h.listeners[path]
	if !ok {
		subs = map[uint64]*subscription{}
		h.listeners[path] = subs
	}
	subs[id] = sub
	h.mu.Unlock()

	sub.emit(diffWindow(nil, initial))

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.closed.Store(true)
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[path], id)
			if len(h.listeners[path]) == 0 {
				delete(h.listeners, path)
			}
		})
	}
}

// Publish reports the current children of path to every attached listener.
func (h *Hub) Publish(path string, children []Entry) {
	h.mu.Lock()
	subs := make([]*subscription, 0, len(h.listeners[path]))
	for _, sub := range h.listeners[path] {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		next := sub.r.Apply(children)
		events := diffWindow(sub.last, next)
		sub.last = next
		sub.emit(events)
	}
}

func (s *subscription) emit(events []childEvent) {
	for _, ev := range events {
		if s.closed.Load() {
			return
		}
		switch ev.kind {
		case childAdded:
			if s.l.OnAdded != nil {
				s.l.OnAdded(ev.entry.Key, ev.entry.Value, ev.predecessor)
			}
		case childChanged:
			if s.l.OnChanged != nil {
				s.l.OnChanged(ev.entry.Key, ev.entry.Value, ev.predecessor)
			}
		case childRemoved:
			if s.l.OnRemoved != nil {
				s.l.OnRemoved(ev.entry.Key)
			}
		}
	}
}

// diffWindow turns two ascending snapshots of a window into events: removals
// first, then additions and changes in ascending order so that every
// predecessor is already in place when it is referenced. An entry counts as
// changed when its value differs or it moved relative to the entries present
// in both snapshots.
func diffWindow(prev, next []Entry) []childEvent {
	prevIdx := make(map[string]int, len(prev))
	for i, e := range prev {
		prevIdx[e.Key] = i
	}
	nextKeys := make(map[string]struct{}, len(next))
	for _, e := range next {
		nextKeys[e.Key] = struct{}{}
	}

	var events []childEvent
	for _, e := range prev {
		if _, ok := nextKeys[e.Key]; !ok {
			events = append(events, childEvent{kind: childRemoved, entry: e})
		}
	}

	// Positions (in prev) of the surviving entries, in next order. Entries on
	// a longest increasing run kept their relative order; the rest moved.
	var positions []int
	var survivors []string
	for _, e := range next {
		if i, ok := prevIdx[e.Key]; ok {
			positions = append(positions, i)
			survivors = append(survivors, e.Key)
		}
	}
	stable := map[string]struct{}{}
	for _, i := range longestIncreasing(positions) {
		stable[survivors[i]] = struct{}{}
	}

	for i, e := range next {
		var predecessor *string
		if i > 0 {
			key := next[i-1].Key
			predecessor = &key
		}
		j, existed := prevIdx[e.Key]
		if !existed {
			events = append(events, childEvent{kind: childAdded, entry: e, predecessor: predecessor})
			continue
		}
		_, kept := stable[e.Key]
		if !kept || !reflect.DeepEqual(prev[j].Value, e.Value) {
			events = append(events, childEvent{kind: childChanged, entry: e, predecessor: predecessor})
		}
	}
	return events
}

// longestIncreasing returns the indexes of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}
	tails := []int{}
	parent := make([]int, len(seq))
	for i, v := range seq {
		k := sort.Search(len(tails), func(t int) bool { return seq[tails[t]] >= v })
		if k > 0 {
			parent[i] = tails[k-1]
		} else {
			parent[i] = -1
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}
	out := make([]int, len(tails))
	for i, k := len(tails)-1, tails[len(tails)-1]; i >= 0; i, k = i-1, parent[k] {
		out[i] = k
	}
	return out
}
