package viewport

import (
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/pkg/errors"
)

type rect Rect

func (r *rect) GetRect() (int, int, int, int) {
	return r.X, r.Y, r.Width, r.Height
}

func TestParseMargin(t *testing.T) {
	tests := []struct {
		in   string
		want Margin
	}{
		{"50px 50px 50px 50px", Margin{50, 50, 50, 50}},
		{"3", Margin{3, 3, 3, 3}},
		{"1px 2px", Margin{1, 2, 1, 2}},
		{"1 2 3", Margin{1, 2, 3, 2}},
		{" -1px 0 4px 5 ", Margin{-1, 0, 4, 5}},
	}
	for _, tt := range tests {
		got, err := ParseMargin(tt.in)
		assert.Equal(t, err, nil)
		assert.Equal(t, got, tt.want)
	}

	for _, bad := range []string{"", "1 2 3 4 5", "1em", "px"} {
		_, err := ParseMargin(bad)
		assert.Equal(t, errors.Is(err, ErrInvalidMargin), true)
	}

	assert.Equal(t, Uniform(2).Scale(3), Margin{6, 6, 6, 6})
	assert.Equal(t, Margin{1, 2, 3, 4}.String(), "1px 2px 3px 4px")
}

func TestIntersects(t *testing.T) {
	root := Rect{0, 0, 10, 10}
	assert.Equal(t, root.Intersects(Rect{9, 9, 1, 1}), true)
	assert.Equal(t, root.Intersects(Rect{10, 0, 1, 1}), false)
	assert.Equal(t, root.Intersects(Rect{0, -1, 5, 1}), false)
	assert.Equal(t, root.Intersects(Rect{2, 2, 0, 3}), false)
	assert.Equal(t, root.Grow(Uniform(1)).Intersects(Rect{0, -1, 5, 1}), true)
}

func TestApplyVisibility(t *testing.T) {
	margin, err := ParseMargin("50px 50px 50px 50px")
	assert.Equal(t, err, nil)
	o := NewObserver(&rect{0, 0, 80, 24}, margin)

	var batches [][]Change
	o.SetChangedFunc(func(c []Change) { batches = append(batches, c) })

	o.Apply([]Change{{Key: "a", Intersecting: true}})
	assert.Equal(t, o.IsVisible("a"), true)
	o.Apply([]Change{{Key: "a", Intersecting: false}})
	assert.Equal(t, o.IsVisible("a"), false)
	assert.Equal(t, len(batches), 2)

	// repeated reports change nothing
	o.Apply([]Change{{Key: "a", Intersecting: false}})
	assert.Equal(t, len(batches), 2)
}

func TestCheckWithMargin(t *testing.T) {
	o := NewObserver(&rect{0, 0, 80, 10}, Margin{Bottom: 5})
	near := &rect{0, 12, 80, 2}
	far := &rect{0, 20, 80, 2}
	unregisterNear := o.Register(near, "near")
	o.Register(far, "far")
	o.Register(&rect{0, 0, 80, 2}, "top")

	o.Check()
	assert.Equal(t, o.Visible().Contains("near", "top"), true)
	assert.Equal(t, o.IsVisible("far"), false)

	// scroll down by ten rows
	near.Y, far.Y = 2, 10
	o.Check()
	assert.Equal(t, o.IsVisible("far"), true)

	unregisterNear()
	unregisterNear()
	assert.Equal(t, o.IsVisible("near"), false)
	assert.Equal(t, o.Visible().Cardinality(), 2)
}

func TestSticky(t *testing.T) {
	el := &rect{0, 0, 10, 1}
	o := NewObserver(&rect{0, 0, 10, 5}, Margin{}).SetSticky(true)
	unregister := o.Register(el, "a")
	o.Register(&rect{0, 1, 10, 1}, "b")
	o.Check()

	el.Y = 100
	o.Check()
	assert.Equal(t, o.IsVisible("a"), true)
	unregister()
	assert.Equal(t, o.IsVisible("a"), false)

	o.Apply([]Change{{Key: "x", Intersecting: true}, {Key: "x", Intersecting: false}})
	assert.Equal(t, o.IsVisible("x"), true)

	o.Reset()
	assert.Equal(t, o.Visible().Cardinality(), 0)
	// registrations are reported again
	o.Check()
	assert.Equal(t, o.IsVisible("b"), true)
	assert.Equal(t, o.IsVisible("a"), false)
}
