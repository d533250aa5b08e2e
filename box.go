package soilview

import (
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// Box implements Primitive with a background, an optional border, a title and
// a footer. The other primitives embed it and draw their content inside
// [Box.GetInnerRect].
type Box struct {
	x, y, width, height int

	// A negative innerX means the inner rect must be recomputed.
	innerX, innerY, innerWidth, innerHeight int

	paddingTop, paddingBottom, paddingLeft, paddingRight int

	backgroundColor tcell.Color

	borders     Borders
	borderSet   BorderSet
	borderStyle tcell.Style

	title          string
	titleStyle     tcell.Style
	titleAlignment Alignment

	footer          string
	footerStyle     tcell.Style
	footerAlignment Alignment

	hasFocus bool

	// dirty is set when the box needs to be redrawn. It may be set from any
	// goroutine.
	dirty atomic.Bool

	focus, blur func()
}

// NewBox returns a Box without a border.
func NewBox() *Box {
	b := &Box{
		width:           15,
		height:          10,
		innerX:          -1,
		backgroundColor: Styles.PrimitiveBackgroundColor,

		borderStyle: tcell.StyleDefault.Foreground(Styles.BorderColor).Background(Styles.PrimitiveBackgroundColor),
		borderSet:   BorderSetPlain(),

		titleStyle:      tcell.StyleDefault.Foreground(Styles.TitleColor),
		titleAlignment:  AlignmentCenter,
		footerStyle:     tcell.StyleDefault.Foreground(Styles.TitleColor),
		footerAlignment: AlignmentCenter,
	}
	b.dirty.Store(true)
	return b
}

// SetBorderPadding sets the space between the border and the content.
func (b *Box) SetBorderPadding(top, bottom, left, right int) *Box {
	if b.paddingTop != top || b.paddingBottom != bottom || b.paddingLeft != left || b.paddingRight != right {
		b.paddingTop, b.paddingBottom, b.paddingLeft, b.paddingRight = top, bottom, left, right
		b.innerX = -1
		b.MarkDirty()
	}
	return b
}

func (b *Box) GetRect() (int, int, int, int) {
	return b.x, b.y, b.width, b.height
}

// GetInnerRect returns the rect inside the border and padding. Width and
// height are never negative.
func (b *Box) GetInnerRect() (int, int, int, int) {
	if b.innerX >= 0 {
		return b.innerX, b.innerY, b.innerWidth, b.innerHeight
	}

	x, y, width, height := b.GetRect()
	if b.title != "" || b.borders.Has(BordersTop) {
		y++
		height--
	}
	if b.footer != "" || b.borders.Has(BordersBottom) {
		height--
	}
	if b.borders.Has(BordersLeft) {
		x++
		width--
	}
	if b.borders.Has(BordersRight) {
		width--
	}

	x += b.paddingLeft
	y += b.paddingTop
	width = max(width-b.paddingLeft-b.paddingRight, 0)
	height = max(height-b.paddingTop-b.paddingBottom, 0)

	b.innerX, b.innerY, b.innerWidth, b.innerHeight = x, y, width, height
	return x, y, width, height
}

func (b *Box) SetRect(x, y, width, height int) {
	if b.x != x || b.y != y || b.width != width || b.height != height {
		b.x, b.y, b.width, b.height = x, y, width, height
		b.innerX = -1
		b.MarkDirty()
	}
}

// IsDirty reports whether the box needs to be redrawn.
func (b *Box) IsDirty() bool {
	return b.dirty.Load()
}

// MarkDirty marks the box as needing a redraw. It is safe to call from any
// goroutine.
func (b *Box) MarkDirty() {
	b.dirty.Store(true)
}

func (b *Box) MarkClean() {
	b.dirty.Store(false)
}

func (b *Box) InputHandler(event *tcell.EventKey) Command {
	return nil
}

// MouseHandler focuses the box on a left click inside it.
func (b *Box) MouseHandler(action MouseAction, event *tcell.EventMouse) (Primitive, Command) {
	if action == MouseLeftDown && b.InRect(event.Position()) {
		return nil, SetFocusCommand{Target: b}
	}
	return nil, nil
}

// InRect reports whether (x, y) lies inside the box.
func (b *Box) InRect(x, y int) bool {
	rectX, rectY, width, height := b.GetRect()
	return x >= rectX && x < rectX+width && y >= rectY && y < rectY+height
}

// InInnerRect reports whether (x, y) lies inside the content area.
func (b *Box) InInnerRect(x, y int) bool {
	rectX, rectY, width, height := b.GetInnerRect()
	return x >= rectX && x < rectX+width && y >= rectY && y < rectY+height
}

func (b *Box) SetBackgroundColor(color tcell.Color) *Box {
	if b.backgroundColor != color {
		b.backgroundColor = color
		b.borderStyle = b.borderStyle.Background(color)
		b.MarkDirty()
	}
	return b
}

func (b *Box) GetBackgroundColor() tcell.Color {
	return b.backgroundColor
}

// SetBorders sets which borders to draw.
func (b *Box) SetBorders(flag Borders) *Box {
	if b.borders != flag {
		b.borders = flag
		b.innerX = -1
		b.MarkDirty()
	}
	return b
}

func (b *Box) GetBorders() Borders {
	return b.borders
}

func (b *Box) SetBorderSet(borderSet BorderSet) *Box {
	if b.borderSet != borderSet {
		b.borderSet = borderSet
		b.MarkDirty()
	}
	return b
}

func (b *Box) SetBorderStyle(style tcell.Style) *Box {
	if b.borderStyle != style {
		b.borderStyle = style
		b.MarkDirty()
	}
	return b
}

func (b *Box) GetTitle() string {
	return b.title
}

func (b *Box) SetTitle(title string) *Box {
	if b.title != title {
		b.title = title
		b.innerX = -1
		b.MarkDirty()
	}
	return b
}

func (b *Box) SetTitleAlignment(alignment Alignment) *Box {
	if b.titleAlignment != alignment {
		b.titleAlignment = alignment
		b.MarkDirty()
	}
	return b
}

func (b *Box) GetFooter() string {
	return b.footer
}

// SetFooter sets the text drawn on the bottom border.
func (b *Box) SetFooter(footer string) *Box {
	if b.footer != footer {
		b.footer = footer
		b.innerX = -1
		b.MarkDirty()
	}
	return b
}

func (b *Box) SetFooterAlignment(alignment Alignment) *Box {
	if b.footerAlignment != alignment {
		b.footerAlignment = alignment
		b.MarkDirty()
	}
	return b
}

func (b *Box) Draw(screen tcell.Screen) {
	b.DrawForSubclass(screen, b)
}

// DrawForSubclass draws the box frame for the embedding primitive p.
func (b *Box) DrawForSubclass(screen tcell.Screen, p Primitive) {
	if b.width <= 0 || b.height <= 0 {
		return
	}

	background := tcell.StyleDefault.Background(b.backgroundColor)
	for y := b.y; y < b.y+b.height; y++ {
		for x := b.x; x < b.x+b.width; x++ {
			screen.SetContent(x, y, ' ', nil, background)
		}
	}

	if b.borders != BordersNone && b.width >= 2 && b.height >= 2 {
		left, right := b.x, b.x+b.width-1
		top, bottom := b.y, b.y+b.height-1
		if b.borders.Has(BordersTop) {
			for x := left + 1; x < right; x++ {
				screen.SetContent(x, top, b.borderSet.Top, nil, b.borderStyle)
			}
		}
		if b.borders.Has(BordersBottom) {
			for x := left + 1; x < right; x++ {
				screen.SetContent(x, bottom, b.borderSet.Bottom, nil, b.borderStyle)
			}
		}
		if b.borders.Has(BordersLeft) {
			for y := top + 1; y < bottom; y++ {
				screen.SetContent(left, y, b.borderSet.Left, nil, b.borderStyle)
			}
		}
		if b.borders.Has(BordersRight) {
			for y := top + 1; y < bottom; y++ {
				screen.SetContent(right, y, b.borderSet.Right, nil, b.borderStyle)
			}
		}
		if b.borders.Has(BordersTop | BordersLeft) {
			screen.SetContent(left, top, b.borderSet.TopLeft, nil, b.borderStyle)
		}
		if b.borders.Has(BordersTop | BordersRight) {
			screen.SetContent(right, top, b.borderSet.TopRight, nil, b.borderStyle)
		}
		if b.borders.Has(BordersBottom | BordersLeft) {
			screen.SetContent(left, bottom, b.borderSet.BottomLeft, nil, b.borderStyle)
		}
		if b.borders.Has(BordersBottom | BordersRight) {
			screen.SetContent(right, bottom, b.borderSet.BottomRight, nil, b.borderStyle)
		}
	}

	b.drawLabel(screen, b.title, b.y, b.titleAlignment, b.titleStyle)
	b.drawLabel(screen, b.footer, b.y+b.height-1, b.footerAlignment, b.footerStyle)

	b.innerX = -1
	b.GetInnerRect()
}

// drawLabel prints a title or footer on row y, ending it with an ellipsis
// when it does not fit.
func (b *Box) drawLabel(screen tcell.Screen, text string, y int, alignment Alignment, style tcell.Style) {
	if text == "" || b.width < 4 {
		return
	}
	printed := PrintWithStyle(screen, text, b.x+1, y, b.width-2, alignment, style, true)
	if printed > 0 && printed < TextWidth(text) {
		xEllipsis := b.x + b.width - 2
		if alignment == AlignmentRight {
			xEllipsis = b.x + 1
		}
		_, _, existing, _ := screen.GetContent(xEllipsis, y)
		fg, _, _ := existing.Decompose()
		Print(screen, string(Ellipsis), xEllipsis, y, 1, AlignmentLeft, fg)
	}
}

// SetFocusFunc sets a callback invoked when the box receives focus.
func (b *Box) SetFocusFunc(callback func()) *Box {
	b.focus = callback
	return b
}

// SetBlurFunc sets a callback invoked when the box loses focus.
func (b *Box) SetBlurFunc(callback func()) *Box {
	b.blur = callback
	return b
}

func (b *Box) Focus(delegate func(p Primitive)) {
	if !b.hasFocus {
		b.hasFocus = true
		b.MarkDirty()
	}
	if b.focus != nil {
		b.focus()
	}
}

func (b *Box) Blur() {
	if b.hasFocus {
		b.hasFocus = false
		b.MarkDirty()
	}
	if b.blur != nil {
		b.blur()
	}
}

func (b *Box) HasFocus() bool {
	return b.hasFocus
}

var _ Primitive = &Box{}
