package realtime

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidRange is returned for ranges that cannot be evaluated.
var ErrInvalidRange = errors.New("realtime: invalid range")

// OrderBy selects what children are ordered by.
type OrderBy int

const (
	// OrderByKey orders by child key. Push keys sort by creation time.
	OrderByKey OrderBy = iota
	// OrderByValue orders by the child's own (scalar) value.
	OrderByValue
	// OrderByChild orders by a field of the child's object value.
	OrderByChild
)

func (o OrderBy) String() string {
	switch o {
	case OrderByKey:
		return "key"
	case OrderByValue:
		return "value"
	case OrderByChild:
		return "child"
	}
	return "unknown"
}

// Ordering is an OrderBy plus, for OrderByChild, the field name.
type Ordering struct {
	By    OrderBy
	Child string
}

// Value returns the ordering value of e.
func (o Ordering) Value(e Entry) any {
	switch o.By {
	case OrderByKey:
		return e.Key
	case OrderByChild:
		if m, ok := e.Value.(map[string]any); ok {
			return m[o.Child]
		}
		return nil
	default:
		return e.Value
	}
}

// Compare orders two entries, breaking ties between equal ordering values by
// key.
func (o Ordering) Compare(a, b Entry) int {
	if c := CompareValues(o.Value(a), o.Value(b)); c != 0 {
		return c
	}
	return strings.Compare(a.Key, b.Key)
}

// Direction is the end of the ordering a limited scan starts from.
type Direction int

const (
	// LimitToFirst scans from the low end (low→high).
	LimitToFirst Direction = iota
	// LimitToLast scans from the high end (high→low).
	LimitToLast
)

func (d Direction) String() string {
	if d == LimitToLast {
		return "limitToLast"
	}
	return "limitToFirst"
}

// Bound is one end of a range. For OrderByKey, Value holds the key and Key is
// ignored; otherwise Key breaks ties between entries with an equal ordering
// value.
type Bound struct {
	Value     any
	Key       string
	Exclusive bool
}

// BoundOf returns an inclusive bound sitting exactly on e.
func BoundOf(o Ordering, e Entry) *Bound {
	b := &Bound{Value: o.Value(e)}
	if o.By != OrderByKey {
		b.Key = e.Key
	}
	return b
}

// After returns a copy of b that excludes the bounding entry.
func (b Bound) After() *Bound {
	b.Exclusive = true
	return &b
}

func (b *Bound) compare(o Ordering, e Entry) int {
	if c := CompareValues(o.Value(e), b.Value); c != 0 {
		return c
	}
	if o.By != OrderByKey && b.Key != "" {
		return strings.Compare(e.Key, b.Key)
	}
	return 0
}

// Range selects an ordered window of children: everything between the
// optional Low and High bounds, optionally limited to Limit entries taken
// from the end given by Direction. An edge window sets one bound, a between
// window sets both, an unbounded window sets neither.
type Range struct {
	Order     Ordering
	Low       *Bound
	High      *Bound
	Limit     int
	Direction Direction
}

// Validate reports ranges that cannot be evaluated.
func (r Range) Validate() error {
	if r.Limit < 0 {
		return errors.Wrapf(ErrInvalidRange, "negative limit %d", r.Limit)
	}
	if r.Order.By == OrderByChild && r.Order.Child == "" {
		return errors.Wrap(ErrInvalidRange, "order by child without a child field")
	}
	return nil
}

// Contains reports whether e falls between the range bounds. The limit is not
// considered.
func (r Range) Contains(e Entry) bool {
	if r.Low != nil {
		c := r.Low.compare(r.Order, e)
		if c < 0 || (c == 0 && r.Low.Exclusive) {
			return false
		}
	}
	if r.High != nil {
		c := r.High.compare(r.Order, e)
		if c > 0 || (c == 0 && r.High.Exclusive) {
			return false
		}
	}
	return true
}

// Apply evaluates r against an unordered set of children and returns the
// selected entries in ascending order.
func (r Range) Apply(children []Entry) []Entry {
	out := make([]Entry, 0, len(children))
	for _, e := range children {
		if r.Contains(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, r.Order.Compare)
	if r.Limit > 0 && len(out) > r.Limit {
		if r.Direction == LimitToLast {
			out = out[len(out)-r.Limit:]
		} else {
			out = out[:r.Limit]
		}
	}
	return out
}

// CompareValues orders two ordering values the way the database does:
// nil < false < true < numbers < strings < objects. Objects compare equal.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		af, _ := Number(a)
		bf, _ := Number(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

const (
	rankNull = iota
	rankBool
	rankNumber
	rankString
	rankObject
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case string:
		return rankString
	}
	if _, ok := Number(v); ok {
		return rankNumber
	}
	return rankObject
}

// Number converts any Go numeric value (or json.Number) to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
