package soilview

import (
	"time"

	"github.com/ayn2op/soilview/realtime"
	"github.com/pkg/errors"
)

// Grouping splits a list into runs of entries created in the same period. A
// header is shown before each run.
type Grouping int

const (
	GroupNone Grouping = iota
	GroupByDay
	GroupByMinute
)

var ErrInvalidGrouping = errors.New("soilview: invalid grouping")

func (g Grouping) String() string {
	switch g {
	case GroupByDay:
		return "day"
	case GroupByMinute:
		return "minute"
	}
	return "none"
}

func ParseGrouping(s string) (Grouping, error) {
	switch s {
	case "", "none":
		return GroupNone, nil
	case "day":
		return GroupByDay, nil
	case "minute":
		return GroupByMinute, nil
	}
	return GroupNone, errors.Wrapf(ErrInvalidGrouping, "%q", s)
}

// Group returns the start of the period e falls in. The entry value is read
// as milliseconds since the epoch; entries without a numeric value fall back
// to the time encoded in their push key.
func (g Grouping) Group(e realtime.Entry, loc *time.Location) (time.Time, bool) {
	if g == GroupNone {
		return time.Time{}, false
	}
	var t time.Time
	if ms, ok := realtime.Number(e.Value); ok {
		t = time.UnixMilli(int64(ms))
	} else if kt, ok := realtime.PushKeyTime(e.Key); ok {
		t = kt
	} else {
		return time.Time{}, false
	}
	if loc != nil {
		t = t.In(loc)
	}

	switch g {
	case GroupByDay:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), true
	case GroupByMinute:
		y, m, d := t.Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, t.Location()), true
	}
	return time.Time{}, false
}

// GroupingBuilder returns the header shown before the entries of a period.
type GroupingBuilder func(g Grouping, start time.Time) ListItem

// DefaultGroupingBuilder shows the period start as a dim line.
func DefaultGroupingBuilder(g Grouping, start time.Time) ListItem {
	layout := "Mon, 02 Jan 2006"
	if g == GroupByMinute {
		layout = "02 Jan 15:04"
	}
	return NewTextItem("── " + start.Format(layout)).SetColor(Styles.SecondaryTextColor)
}
