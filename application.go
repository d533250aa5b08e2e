package soilview

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/glog"
)

const (
	// The size of the event and queued update channels.
	queueSize = 100
	// The minimum time between two redraws caused by resizes.
	redrawPause = 50 * time.Millisecond
)

// DoubleClickInterval is the longest time between two clicks that still
// counts as a double click.
var DoubleClickInterval = 500 * time.Millisecond

// MouseAction is what the mouse is logically doing.
type MouseAction int16

const (
	MouseMove MouseAction = iota
	MouseLeftDown
	MouseLeftUp
	MouseLeftClick
	MouseLeftDoubleClick
	MouseMiddleDown
	MouseMiddleUp
	MouseMiddleClick
	MouseMiddleDoubleClick
	MouseRightDown
	MouseRightUp
	MouseRightClick
	MouseRightDoubleClick
	MouseScrollUp
	MouseScrollDown
	MouseScrollLeft
	MouseScrollRight
)

// queuedUpdate is a func queued by [Application.QueueUpdate]. done, if set,
// receives one element after f ran.
type queuedUpdate struct {
	f    func()
	done chan struct{}
}

// dirtier is implemented by primitives embedding [Box].
type dirtier interface {
	IsDirty() bool
	MarkClean()
}

// Application owns the screen and the event loop. Every primitive, list
// controller and hydrator attached to it runs on the event loop goroutine;
// other goroutines hand work over with [Application.Post] or
// [Application.QueueUpdate].
type Application struct {
	sync.RWMutex

	screen tcell.Screen
	focus  Primitive
	root   Primitive

	events  chan tcell.Event
	updates chan queuedUpdate

	// posted holds funcs handed over with Post. wake has room for one signal
	// so Post never blocks.
	postMu sync.Mutex
	posted []func()
	wake   chan struct{}

	mouseCapturingPrimitive Primitive
	lastMouseX, lastMouseY  int
	mouseDownX, mouseDownY  int
	lastMouseClick          time.Time
	lastMouseButtons        tcell.ButtonMask

	// forceRedraw requests a full clear before the next frame.
	forceRedraw bool
}

func NewApplication() *Application {
	return &Application{
		events:  make(chan tcell.Event, queueSize),
		updates: make(chan queuedUpdate, queueSize),
		wake:    make(chan struct{}, 1),
	}
}

// SetScreen sets the screen to run on, e.g. a simulation screen. It has no
// effect once a screen is set.
func (a *Application) SetScreen(screen tcell.Screen) *Application {
	a.Lock()
	defer a.Unlock()
	if a.screen == nil {
		a.screen = screen
		a.forceRedraw = true
	}
	return a
}

// Run starts the event loop and returns once [Application.Stop] was called
// or the screen failed.
func (a *Application) Run() error {
	var (
		appErr      error
		lastRedraw  time.Time
		redrawTimer *time.Timer
	)

	a.Lock()
	if a.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			a.Unlock()
			return err
		}
		a.screen = screen
	}
	screen := a.screen
	a.Unlock()

	if err := screen.Init(); err != nil {
		return err
	}
	screen.EnableMouse()

	// Panics leave the terminal in a bad state.
	defer func() {
		if p := recover(); p != nil {
			a.Stop()
			panic(p)
		}
	}()

	a.draw()

	go func() {
		for {
			event := screen.PollEvent()
			a.events <- event
			if event == nil {
				return
			}
		}
	}()

EventLoop:
	for {
		select {
		case event := <-a.events:
			if event == nil {
				break EventLoop
			}

			switch event := event.(type) {
			case *tcell.EventKey:
				a.RLock()
				root := a.root
				a.RUnlock()
				if root != nil && root.HasFocus() {
					if a.executeCommand(root.InputHandler(event)) {
						a.draw()
					}
				}
			case *tcell.EventResize:
				a.Lock()
				a.forceRedraw = true
				a.Unlock()
				if time.Since(lastRedraw) < redrawPause {
					if redrawTimer != nil {
						redrawTimer.Stop()
					}
					redrawTimer = time.AfterFunc(redrawPause, func() {
						a.events <- event
					})
				}
				lastRedraw = time.Now()
				screen.Sync()
				a.draw()
			case *tcell.EventMouse:
				handled, isMouseDownAction := a.fireMouseActions(event)
				if handled {
					a.draw()
				}
				a.lastMouseButtons = event.Buttons()
				if isMouseDownAction {
					a.mouseDownX, a.mouseDownY = event.Position()
				}
			case *tcell.EventError:
				appErr = event
				a.Stop()
			}

		case update := <-a.updates:
			update.f()
			if update.done != nil {
				update.done <- struct{}{}
			}

		case <-a.wake:
			a.runPosted()
		}

		a.drawIfDirty()
	}

	if redrawTimer != nil {
		redrawTimer.Stop()
	}
	return appErr
}

// Post queues f to run on the event loop and returns immediately. The screen
// is redrawn after f if it left the root dirty. It implements the scheduler
// list controllers and hydrators hand their results back with.
func (a *Application) Post(f func()) {
	a.postMu.Lock()
	a.posted = append(a.posted, f)
	a.postMu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Application) runPosted() {
	a.postMu.Lock()
	posted := a.posted
	a.posted = nil
	a.postMu.Unlock()
	for _, f := range posted {
		f()
	}
}

func (a *Application) drawIfDirty() {
	a.RLock()
	root := a.root
	a.RUnlock()
	if d, ok := root.(dirtier); ok && d.IsDirty() {
		a.draw()
	}
}

// fireMouseActions derives mouse actions from event and forwards them to the
// root or to the primitive capturing the mouse.
func (a *Application) fireMouseActions(event *tcell.EventMouse) (handled, isMouseDownAction bool) {
	var targetPrimitive Primitive

	fire := func(action MouseAction) {
		switch action {
		case MouseLeftDown, MouseMiddleDown, MouseRightDown:
			isMouseDownAction = true
		}

		var primitive, capturingPrimitive Primitive
		if a.mouseCapturingPrimitive != nil {
			primitive = a.mouseCapturingPrimitive
			targetPrimitive = a.mouseCapturingPrimitive
		} else if targetPrimitive != nil {
			primitive = targetPrimitive
		} else {
			a.RLock()
			primitive = a.root
			a.RUnlock()
		}
		if primitive != nil {
			var cmd Command
			capturingPrimitive, cmd = primitive.MouseHandler(action, event)
			if a.executeCommand(cmd) {
				handled = true
			}
		}
		a.mouseCapturingPrimitive = capturingPrimitive
	}

	x, y := event.Position()
	buttons := event.Buttons()
	clickMoved := x != a.mouseDownX || y != a.mouseDownY
	buttonChanges := buttons ^ a.lastMouseButtons

	if x != a.lastMouseX || y != a.lastMouseY {
		fire(MouseMove)
		a.lastMouseX = x
		a.lastMouseY = y
	}

	for _, buttonEvent := range []struct {
		button                  tcell.ButtonMask
		down, up, click, dclick MouseAction
	}{
		{tcell.ButtonPrimary, MouseLeftDown, MouseLeftUp, MouseLeftClick, MouseLeftDoubleClick},
		{tcell.ButtonMiddle, MouseMiddleDown, MouseMiddleUp, MouseMiddleClick, MouseMiddleDoubleClick},
		{tcell.ButtonSecondary, MouseRightDown, MouseRightUp, MouseRightClick, MouseRightDoubleClick},
	} {
		if buttonChanges&buttonEvent.button == 0 {
			continue
		}
		if buttons&buttonEvent.button != 0 {
			fire(buttonEvent.down)
			continue
		}
		fire(buttonEvent.up)
		if clickMoved {
			continue
		}
		if a.lastMouseClick.Add(DoubleClickInterval).Before(time.Now()) {
			fire(buttonEvent.click)
			a.lastMouseClick = time.Now()
		} else {
			fire(buttonEvent.dclick)
			a.lastMouseClick = time.Time{}
		}
	}

	for _, wheelEvent := range []struct {
		button tcell.ButtonMask
		action MouseAction
	}{
		{tcell.WheelUp, MouseScrollUp},
		{tcell.WheelDown, MouseScrollDown},
		{tcell.WheelLeft, MouseScrollLeft},
		{tcell.WheelRight, MouseScrollRight},
	} {
		if buttons&wheelEvent.button != 0 {
			fire(wheelEvent.action)
		}
	}

	return handled, isMouseDownAction
}

// Stop finalizes the screen, which makes Run return.
func (a *Application) Stop() {
	a.Lock()
	defer a.Unlock()
	screen := a.screen
	if screen == nil {
		return
	}
	screen.Fini()
	a.screen = nil
	glog.V(1).Infof("[app]stopped\n")
}

// Draw redraws the screen on the event loop.
func (a *Application) Draw() *Application {
	a.QueueUpdate(func() {
		a.draw()
	})
	return a
}

func (a *Application) draw() *Application {
	a.Lock()
	screen := a.screen
	root := a.root
	forceRedraw := a.forceRedraw
	a.forceRedraw = false
	a.Unlock()

	if screen == nil || root == nil {
		return a
	}

	width, height := screen.Size()
	root.SetRect(0, 0, width, height)

	// Cleaned before drawing so that changes made while drawing, such as
	// visibility updates, schedule another frame.
	if d, ok := root.(dirtier); ok {
		d.MarkClean()
	}
	if forceRedraw {
		screen.Clear()
	}
	root.Draw(screen)
	screen.Show()

	if d, ok := root.(dirtier); ok && d.IsDirty() {
		a.Post(func() {})
	}
	return a
}

// SetRoot sets the primitive filling the screen and focuses it.
func (a *Application) SetRoot(root Primitive) *Application {
	a.Lock()
	a.root = root
	if a.screen != nil {
		a.forceRedraw = true
	}
	a.Unlock()

	a.SetFocus(root)
	return a
}

// SetFocus blurs the focused primitive and focuses p.
func (a *Application) SetFocus(p Primitive) *Application {
	a.Lock()
	if a.focus != nil {
		a.focus.Blur()
	}
	a.focus = p
	if a.screen != nil {
		a.screen.HideCursor()
	}
	a.Unlock()
	if p != nil {
		p.Focus(func(p Primitive) {
			a.SetFocus(p)
		})
	}
	return a
}

func (a *Application) GetFocus() Primitive {
	a.RLock()
	defer a.RUnlock()
	return a.focus
}

// QueueUpdate runs f on the event loop and returns after it ran. It must not
// be called from the event loop itself.
func (a *Application) QueueUpdate(f func()) *Application {
	ch := make(chan struct{})
	a.updates <- queuedUpdate{f: f, done: ch}
	<-ch
	return a
}

// QueueUpdateDraw works like QueueUpdate and redraws after f.
func (a *Application) QueueUpdateDraw(f func()) *Application {
	a.QueueUpdate(func() {
		f()
		a.draw()
	})
	return a
}

// QueueEvent hands event to the event loop.
func (a *Application) QueueEvent(event tcell.Event) *Application {
	a.events <- event
	return a
}

// executeCommand runs cmd and reports whether the screen should be redrawn.
func (a *Application) executeCommand(cmd Command) bool {
	if cmd == nil {
		return false
	}

	switch c := cmd.(type) {
	case BatchCommand:
		redraw := false
		for _, item := range c {
			if a.executeCommand(item) {
				redraw = true
			}
		}
		return redraw
	case RedrawCommand:
		return true
	case QuitCommand:
		a.Stop()
		return false
	case SetFocusCommand:
		if c.Target == nil {
			return false
		}
		a.RLock()
		changed := a.focus != c.Target
		a.RUnlock()
		a.SetFocus(c.Target)
		return changed
	case ConsumeEventCommand:
		return false
	}
	return false
}
