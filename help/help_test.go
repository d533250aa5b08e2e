package help

import (
	"strings"
	"testing"

	"github.com/ayn2op/soilview/keybind"
	"github.com/gdamore/tcell/v2"
	"github.com/go-playground/assert/v2"
)

type keyMap []keybind.Keybind

func (k keyMap) ShortHelp() []keybind.Keybind { return k }

var bindings = keyMap{
	keybind.NewKeybind(keybind.WithKeys("down"), keybind.WithHelp("↓", "down")),
	keybind.NewKeybind(keybind.WithKeys("up"), keybind.WithHelp("↑", "up")),
	keybind.NewKeybind(keybind.WithKeys("x"), keybind.WithHelp("x", "hidden"), keybind.WithDisabled()),
	keybind.NewKeybind(keybind.WithKeys("q"), keybind.WithHelp("q", "quit")),
}

func TestLine(t *testing.T) {
	h := New()
	assert.Equal(t, h.Line(bindings, 0), "↓ down • ↑ up • q quit")
	// "↓ down • ↑ up" is 13 cells, the ellipsis needs 2 more.
	assert.Equal(t, h.Line(bindings, 16), "↓ down • ↑ up …")
	assert.Equal(t, h.Line(bindings, 3), "")
}

func TestDraw(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	assert.Equal(t, screen.Init(), nil)
	defer screen.Fini()
	screen.SetSize(40, 1)

	h := New().SetKeyMap(bindings).SetStatusFunc(func() string { return "live" })
	h.SetRect(0, 0, 40, 1)
	h.Draw(screen)
	screen.Show()

	cells, w, _ := screen.GetContents()
	var row []rune
	for x := 0; x < w; x++ {
		row = append(row, cells[x].Runes...)
	}
	assert.Equal(t, string(row), "↓ down • ↑ up • q quit"+strings.Repeat(" ", 14)+"live")
}
