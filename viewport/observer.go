// Package viewport tracks which items of a scrolled list are on screen, or
// close enough to it to be worth loading.
package viewport

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Element is anything placed on screen, e.g. a primitive.
type Element interface {
	GetRect() (x, y, width, height int)
}

// Change reports whether the element registered under Key intersects the
// margin-grown root.
type Change struct {
	Key          string
	Intersecting bool
}

type registration struct {
	el  Element
	key string
	// nil until the first check
	intersecting *bool
}

// Observer keeps the set of visible keys of one list. It is owned by the
// goroutine that draws the list and is not safe for concurrent use.
type Observer struct {
	root      Element
	margin    Margin
	nextID    uint64
	regs      map[uint64]*registration
	visible  mapset.Set[string]
	sticky   bool
	onChange func([]Change)
}

func NewObserver(root Element, margin Margin) *Observer {
	return &Observer{
		root:    root,
		margin:  margin,
		regs:    map[uint64]*registration{},
		visible: mapset.NewThreadUnsafeSet[string](),
	}
}

// SetMargin replaces the margin. It applies from the next check.
func (o *Observer) SetMargin(m Margin) *Observer {
	o.margin = m
	return o
}

// SetChangedFunc sets the handler called after every batch that altered the
// visible set.
func (o *Observer) SetChangedFunc(handler func([]Change)) *Observer {
	o.onChange = handler
	return o
}

// SetSticky keeps keys visible once they have been seen, until they are
// unregistered.
func (o *Observer) SetSticky(sticky bool) *Observer {
	o.sticky = sticky
	return o
}

// Register starts observing el under key. The returned function stops
// observing it, which hides key unless another element is registered under
// it; calling it again does nothing.
func (o *Observer) Register(el Element, key string) (unregister func()) {
	o.nextID++
	id := o.nextID
	o.regs[id] = &registration{el: el, key: key}

	var once sync.Once
	return func() {
		once.Do(func() {
			delete(o.regs, id)
			if o.registered(key) {
				return
			}
			if o.visible.Contains(key) {
				o.visible.Remove(key)
				o.changed([]Change{{Key: key}})
			}
		})
	}
}

func (o *Observer) registered(key string) bool {
	for _, reg := range o.regs {
		if reg.key == key {
			return true
		}
	}
	return false
}

// Check intersects every registered element with the root and applies what
// changed since the previous check as one batch.
func (o *Observer) Check() {
	x, y, w, h := o.root.GetRect()
	root := Rect{x, y, w, h}.Grow(o.margin)

	ids := make([]uint64, 0, len(o.regs))
	for id := range o.regs {
		ids = append(ids, id)
	}
	// registration order keeps batches deterministic
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var batch []Change
	for _, id := range ids {
		reg := o.regs[id]
		ex, ey, ew, eh := reg.el.GetRect()
		hit := root.Intersects(Rect{ex, ey, ew, eh})
		if reg.intersecting != nil && *reg.intersecting == hit {
			continue
		}
		reg.intersecting = &hit
		batch = append(batch, Change{Key: reg.key, Intersecting: hit})
	}
	o.Apply(batch)
}

// Apply updates the visible set from a batch of intersection changes: keys
// entering are added, keys leaving are removed unless sticky.
func (o *Observer) Apply(batch []Change) {
	var applied []Change
	for _, c := range batch {
		switch {
		case c.Intersecting && !o.visible.Contains(c.Key):
			o.visible.Add(c.Key)
		case !c.Intersecting && o.visible.Contains(c.Key) && !o.sticky:
			o.visible.Remove(c.Key)
		default:
			continue
		}
		applied = append(applied, c)
	}
	if len(applied) > 0 {
		o.changed(applied)
	}
}

func (o *Observer) changed(batch []Change) {
	if o.onChange != nil {
		o.onChange(batch)
	}
}

// Visible returns a copy of the visible set.
func (o *Observer) Visible() mapset.Set[string] {
	return o.visible.Clone()
}

func (o *Observer) IsVisible(key string) bool {
	return o.visible.Contains(key)
}

// Reset forgets every visible key, sticky ones included. Registrations stay
// and are reported again by the next check.
func (o *Observer) Reset() {
	o.visible.Clear()
	for _, reg := range o.regs {
		reg.intersecting = nil
	}
}
