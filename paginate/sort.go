package paginate

import (
	"strings"

	"github.com/ayn2op/soilview/realtime"
)

// SortField is what a list is sorted by.
type SortField int

const (
	// ByCreated sorts by key; push keys sort by creation time.
	ByCreated SortField = iota
	// ByUpdated sorts by the list's index value, an "updated at" timestamp.
	ByUpdated
	// ByChild sorts by a field of the stored value.
	ByChild
)

// Sort is the order a list is shown in.
type Sort struct {
	Field SortField
	// Child names the field for ByChild.
	Child string
	// Desc shows the high end first and pages toward the low end.
	Desc bool
}

var (
	CreatedOldest = Sort{Field: ByCreated}
	CreatedNewest = Sort{Field: ByCreated, Desc: true}
	UpdatedOldest = Sort{Field: ByUpdated}
	UpdatedNewest = Sort{Field: ByUpdated, Desc: true}
)

// ChildSort sorts by the child field of every value.
func ChildSort(child string, desc bool) Sort {
	return Sort{Field: ByChild, Child: child, Desc: desc}
}

func (s Sort) Ordering() realtime.Ordering {
	switch s.Field {
	case ByUpdated:
		return realtime.Ordering{By: realtime.OrderByValue}
	case ByChild:
		return realtime.Ordering{By: realtime.OrderByChild, Child: s.Child}
	}
	return realtime.Ordering{By: realtime.OrderByKey}
}

// Direction is the end pages are fetched from: the end shown first.
func (s Sort) Direction() realtime.Direction {
	if s.Desc {
		return realtime.LimitToLast
	}
	return realtime.LimitToFirst
}

func (s Sort) String() string {
	var name string
	switch s.Field {
	case ByCreated:
		name = "created"
	case ByUpdated:
		name = "updated"
	default:
		name = "child " + s.Child
	}
	if s.Desc {
		if s.Field == ByChild {
			return name + " desc"
		}
		return name + " newest"
	}
	if s.Field == ByChild {
		return name + " asc"
	}
	return name + " oldest"
}

// ParseSort parses the names printed by [Sort.String].
func ParseSort(s string) (Sort, bool) {
	if rest, ok := strings.CutPrefix(s, "child "); ok {
		child, dir, ok := strings.Cut(rest, " ")
		if !ok || child == "" {
			return Sort{}, false
		}
		switch dir {
		case "asc":
			return ChildSort(child, false), true
		case "desc":
			return ChildSort(child, true), true
		}
		return Sort{}, false
	}
	switch s {
	case "created oldest":
		return CreatedOldest, true
	case "created newest":
		return CreatedNewest, true
	case "updated oldest":
		return UpdatedOldest, true
	case "updated newest":
		return UpdatedNewest, true
	}
	return Sort{}, false
}
