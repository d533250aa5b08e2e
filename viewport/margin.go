package viewport

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidMargin is returned by [ParseMargin] for malformed margins.
var ErrInvalidMargin = errors.New("viewport: invalid margin")

// Margin grows the root rectangle on each side. One unit is one cell.
type Margin struct {
	Top, Right, Bottom, Left int
}

// Uniform returns a margin of n cells on every side.
func Uniform(n int) Margin {
	return Margin{n, n, n, n}
}

// Scale multiplies every side by n.
func (m Margin) Scale(n int) Margin {
	return Margin{m.Top * n, m.Right * n, m.Bottom * n, m.Left * n}
}

func (m Margin) String() string {
	return strconv.Itoa(m.Top) + "px " + strconv.Itoa(m.Right) + "px " +
		strconv.Itoa(m.Bottom) + "px " + strconv.Itoa(m.Left) + "px"
}

// ParseMargin parses CSS margin shorthand: one to four whitespace separated
// lengths, each an integer with an optional "px" suffix. Negative lengths
// shrink the root.
func ParseMargin(s string) (Margin, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 4 {
		return Margin{}, errors.Wrapf(ErrInvalidMargin, "%q: want 1 to 4 values", s)
	}
	v := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSuffix(f, "px"))
		if err != nil {
			return Margin{}, errors.Wrapf(ErrInvalidMargin, "%q: %q is not a length", s, f)
		}
		v[i] = n
	}
	switch len(v) {
	case 1:
		return Margin{v[0], v[0], v[0], v[0]}, nil
	case 2:
		return Margin{v[0], v[1], v[0], v[1]}, nil
	case 3:
		return Margin{v[0], v[1], v[2], v[1]}, nil
	}
	return Margin{v[0], v[1], v[2], v[3]}, nil
}

// Rect is a screen rectangle.
type Rect struct {
	X, Y, Width, Height int
}

// Grow returns r expanded by m.
func (r Rect) Grow(m Margin) Rect {
	return Rect{
		X:      r.X - m.Left,
		Y:      r.Y - m.Top,
		Width:  r.Width + m.Left + m.Right,
		Height: r.Height + m.Top + m.Bottom,
	}
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether r and o share at least one cell.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}
