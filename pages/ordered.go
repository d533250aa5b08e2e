// Package pages holds the fetched part of a list as a sequence of pages and
// keeps every page ordered as live child events arrive.
package pages

import (
	"slices"

	"github.com/ayn2op/soilview/realtime"
)

// Ordered is an insertion-ordered key/value mapping. The pages of a list keep
// their entries in ascending database order.
type Ordered struct {
	keys   []string
	values map[string]any
}

// NewOrdered returns a page holding entries in the given order.
func NewOrdered(entries ...realtime.Entry) *Ordered {
	p := &Ordered{
		keys:   make([]string, 0, len(entries)),
		values: make(map[string]any, len(entries)),
	}
	for _, e := range entries {
		if _, ok := p.values[e.Key]; ok {
			p.values[e.Key] = e.Value
			continue
		}
		p.keys = append(p.keys, e.Key)
		p.values[e.Key] = e.Value
	}
	return p
}

func (p *Ordered) Len() int {
	return len(p.keys)
}

func (p *Ordered) Keys() []string {
	return slices.Clone(p.keys)
}

func (p *Ordered) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

func (p *Ordered) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Entries returns the page contents in order.
func (p *Ordered) Entries() []realtime.Entry {
	out := make([]realtime.Entry, len(p.keys))
	for i, key := range p.keys {
		out[i] = realtime.Entry{Key: key, Value: p.values[key]}
	}
	return out
}

// Remove drops key from the page and reports whether it was present.
func (p *Ordered) Remove(key string) bool {
	if _, ok := p.values[key]; !ok {
		return false
	}
	delete(p.values, key)
	if i := slices.Index(p.keys, key); i >= 0 {
		p.keys = slices.Delete(p.keys, i, i+1)
	}
	return true
}

// InsertOrMove places key right after predecessor, or first when predecessor
// is nil, removing any earlier occurrence of key. Applying the same event
// twice leaves the page as applying it once.
//
// When predecessor is not in the page the entry is appended and placed is
// false. That position may be wrong while a key crosses a page boundary; the
// next event for the key corrects it.
func InsertOrMove(page *Ordered, key string, value any, predecessor *string) (placed bool) {
	page.Remove(key)
	page.values[key] = value

	if predecessor == nil {
		page.keys = slices.Insert(page.keys, 0, key)
		return true
	}
	i := slices.Index(page.keys, *predecessor)
	if i < 0 {
		page.keys = append(page.keys, key)
		return false
	}
	page.keys = slices.Insert(page.keys, i+1, key)
	return true
}
