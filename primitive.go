package soilview

import "github.com/gdamore/tcell/v2"

// Primitive is anything the application can draw and route input to.
type Primitive interface {
	// Draw draws the primitive inside its rect.
	Draw(screen tcell.Screen)

	GetRect() (int, int, int, int)
	SetRect(x, y, width, height int)

	// InputHandler receives key events while the primitive has focus.
	InputHandler(event *tcell.EventKey) Command
	// MouseHandler receives mouse events. A non-nil capture primitive receives
	// the follow-up mouse events until it releases the capture.
	MouseHandler(action MouseAction, event *tcell.EventMouse) (capture Primitive, cmd Command)

	// HasFocus reports whether the primitive or one of its children has focus.
	HasFocus() bool
	// Focus is called when the primitive receives focus. It may pass the focus
	// on with delegate.
	Focus(delegate func(p Primitive))
	Blur()
}
