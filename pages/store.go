package pages

import (
	"slices"

	"github.com/golang/glog"

	"github.com/ayn2op/soilview/realtime"
)

// Store is the ordered sequence of pages of one list. Page i is the i-th page
// fetched, counting from the edge the list is scanned from.
//
// A Store is not safe for concurrent use.
type Store struct {
	pages []*Ordered
	// page index of every stored key
	owner map[string]int
}

func NewStore() *Store {
	return &Store{
		owner: map[string]int{},
	}
}

func (s *Store) page(i int) *Ordered {
	for len(s.pages) <= i {
		s.pages = append(s.pages, NewOrdered())
	}
	return s.pages[i]
}

// claim records key as living in page i and drops it from any other page.
func (s *Store) claim(i int, key string) {
	if j, ok := s.owner[key]; ok && j != i {
		s.pages[j].Remove(key)
		glog.V(2).Infof("[pages]%s moved from page %d to page %d\n", key, j, i)
	}
	s.owner[key] = i
}

// Seed fills page i with the result of a range query. Entries must be in
// ascending order.
func (s *Store) Seed(i int, entries []realtime.Entry) {
	page := s.page(i)
	for _, key := range page.keys {
		if s.owner[key] == i {
			delete(s.owner, key)
		}
	}
	fresh := NewOrdered(entries...)
	for _, key := range fresh.keys {
		s.claim(i, key)
	}
	s.pages[i] = fresh
}

// ApplyAdd applies an added or changed child reported by the listener of page
// i. It reports whether the predecessor was found.
func (s *Store) ApplyAdd(i int, key string, value any, predecessor *string) bool {
	page := s.page(i)
	s.claim(i, key)
	placed := InsertOrMove(page, key, value, predecessor)
	if !placed {
		glog.Warningf("[pages]predecessor %s of %s not in page %d, appended\n", *predecessor, key, i)
	}
	return placed
}

// ApplyRemove applies a removal reported by the listener of page i. Only page
// i is touched: the key may already have moved to another page.
func (s *Store) ApplyRemove(i int, key string) bool {
	if i >= len(s.pages) {
		return false
	}
	if !s.pages[i].Remove(key) {
		return false
	}
	if s.owner[key] == i {
		delete(s.owner, key)
	}
	return true
}

// PageOf returns the page holding key.
func (s *Store) PageOf(key string) (int, bool) {
	i, ok := s.owner[key]
	return i, ok
}

// Get returns the stored value of key.
func (s *Store) Get(key string) (any, bool) {
	i, ok := s.owner[key]
	if !ok {
		return nil, false
	}
	return s.pages[i].Get(key)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.owner)
}

// Pages returns the number of pages.
func (s *Store) Pages() int {
	return len(s.pages)
}

// Page returns the entries of page i.
func (s *Store) Page(i int) []realtime.Entry {
	if i >= len(s.pages) {
		return nil
	}
	return s.pages[i].Entries()
}

// MergedView flattens the pages into one sequence. Pages scanned low to high
// are concatenated in fetch order and pages scanned high to low in reverse,
// which yields ascending order; descending reverses the result for display.
func (s *Store) MergedView(direction realtime.Direction, descending bool) []realtime.Entry {
	out := make([]realtime.Entry, 0, len(s.owner))
	if direction == realtime.LimitToLast {
		for i := len(s.pages) - 1; i >= 0; i-- {
			out = append(out, s.pages[i].Entries()...)
		}
	} else {
		for _, page := range s.pages {
			out = append(out, page.Entries()...)
		}
	}
	if descending {
		slices.Reverse(out)
	}
	return out
}

// Reset discards every page.
func (s *Store) Reset() {
	s.pages = nil
	clear(s.owner)
}
