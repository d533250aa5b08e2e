package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/ayn2op/soilview"
	"github.com/ayn2op/soilview/help"
)

// view stacks the list over a one row help bar.
type view struct {
	*soilview.Box
	list *soilview.ObserverList
	help *help.Help
}

func newView(list *soilview.ObserverList, h *help.Help) *view {
	return &view{
		Box:  soilview.NewBox(),
		list: list,
		help: h,
	}
}

func (v *view) IsDirty() bool {
	return v.Box.IsDirty() || v.list.IsDirty() || v.help.IsDirty()
}

func (v *view) MarkClean() {
	v.Box.MarkClean()
	v.list.MarkClean()
	v.help.MarkClean()
}

func (v *view) Draw(screen tcell.Screen) {
	v.DrawForSubclass(screen, v)
	x, y, width, height := v.GetInnerRect()
	if height <= 0 {
		return
	}
	v.list.SetRect(x, y, width, height-1)
	v.help.SetRect(x, y+height-1, width, 1)
	v.list.Draw(screen)
	v.help.Draw(screen)
}

func (v *view) InputHandler(event *tcell.EventKey) soilview.Command {
	if event.Key() == tcell.KeyCtrlC || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
		v.list.Close()
		return soilview.QuitCommand{}
	}
	return v.list.InputHandler(event)
}

func (v *view) MouseHandler(action soilview.MouseAction, event *tcell.EventMouse) (soilview.Primitive, soilview.Command) {
	return v.list.MouseHandler(action, event)
}

func (v *view) Focus(delegate func(p soilview.Primitive)) {
	delegate(v.list)
}

func (v *view) HasFocus() bool {
	return v.list.HasFocus()
}
