package paginate

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"

	"github.com/ayn2op/soilview/realtime"
)

// ErrNoAmount is returned when pagination is requested without a page size.
var ErrNoAmount = errors.New("paginate: pagination needs a page amount")

// State is the lifecycle state of a [Controller].
type State int

const (
	// StateIdle: nothing loaded, nothing attached.
	StateIdle State = iota
	// StateInitialLoad: the first page is being fetched.
	StateInitialLoad
	// StateListening: pages are loaded and their listeners attached.
	StateListening
	// StateFetchingNextPage: the next page is being fetched.
	StateFetchingNextPage
	// StateExhausted: the whole list is loaded; only listeners remain.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialLoad:
		return "initial load"
	case StateListening:
		return "listening"
	case StateFetchingNextPage:
		return "fetching next page"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Pagination loads a list Amount keys at a time. A new page is fetched once
// one of the last Buffer loaded keys is visible.
type Pagination struct {
	Amount int
	Buffer int
}

func (p *Pagination) Validate() error {
	if p.Amount <= 0 {
		return errors.Wrapf(ErrNoAmount, "amount %d", p.Amount)
	}
	if p.Buffer < 0 {
		return errors.Errorf("paginate: negative buffer %d", p.Buffer)
	}
	return nil
}

func (p *Pagination) buffer() int {
	if p.Buffer < 1 {
		return 1
	}
	return p.Buffer
}

// Identity is everything that decides which list is loaded. Changing any of
// it discards the loaded list.
type Identity struct {
	Selector realtime.Selector
	DataType string
	// UserID is the signed in user, needed by user lists.
	UserID string
	Sort   Sort
	// Pagination is nil to load the whole list at once.
	Pagination *Pagination
	// StartEdge, when set, is where the list starts: nothing beyond it in the
	// direction opposite to paging is loaded.
	StartEdge *realtime.Bound
	// IgnoreNonStartingEdgeAdditions drops additions reported to pages other
	// than the first.
	IgnoreNonStartingEdgeAdditions bool
	// Disabled suspends all loading.
	Disabled bool
}

func (id Identity) Equal(other Identity) bool {
	return reflect.DeepEqual(id, other)
}

// Event is dispatched to a [Controller].
type Event interface {
	event()
}

// IdentityChanged sets what the controller loads.
type IdentityChanged struct {
	Identity Identity
}

// VisibilityChanged reports the keys currently visible.
type VisibilityChanged struct {
	Visible mapset.Set[string]
}

// Teardown detaches everything and discards the loaded list.
type Teardown struct{}

type fetchCompleted struct {
	gen     uint64
	page    int
	window  realtime.Range
	entries []realtime.Entry
	err     error
}

type childAdded struct {
	gen         uint64
	page        int
	key         string
	value       any
	predecessor *string
}

type childChanged struct {
	gen         uint64
	page        int
	key         string
	value       any
	predecessor *string
}

type childRemoved struct {
	gen  uint64
	page int
	key  string
}

func (IdentityChanged) event()   {}
func (VisibilityChanged) event() {}
func (Teardown) event()          {}
func (fetchCompleted) event()    {}
func (childAdded) event()        {}
func (childChanged) event()      {}
func (childRemoved) event()      {}
