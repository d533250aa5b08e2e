// Package help draws a one line summary of the active key bindings.
package help

import (
	"github.com/ayn2op/soilview"
	"github.com/ayn2op/soilview/keybind"
	"github.com/gdamore/tcell/v2"
)

// KeyMap is implemented by primitives that expose their bindings.
type KeyMap interface {
	ShortHelp() []keybind.Keybind
}

type Styles struct {
	KeyStyle       tcell.Style
	DescStyle      tcell.Style
	SeparatorStyle tcell.Style
	EllipsisStyle  tcell.Style
}

func DefaultStyles() Styles {
	dim := tcell.StyleDefault.Dim(true)
	return Styles{
		KeyStyle:       dim,
		DescStyle:      tcell.StyleDefault,
		SeparatorStyle: dim,
		EllipsisStyle:  dim,
	}
}

// Help is a primitive showing "key desc • key desc". Bindings that do not
// fit are replaced by an ellipsis.
type Help struct {
	*soilview.Box
	Styles Styles

	keyMap    KeyMap
	separator string
	ellipsis  string
	// status is drawn right aligned, e.g. the list state.
	status func() string
}

func New() *Help {
	return &Help{
		Box:       soilview.NewBox(),
		Styles:    DefaultStyles(),
		separator: " • ",
		ellipsis:  "…",
	}
}

func (h *Help) SetKeyMap(keyMap KeyMap) *Help {
	h.keyMap = keyMap
	h.MarkDirty()
	return h
}

func (h *Help) SetSeparator(separator string) *Help {
	h.separator = separator
	return h
}

// SetStatusFunc sets a func whose result is drawn at the right edge.
func (h *Help) SetStatusFunc(status func() string) *Help {
	h.status = status
	return h
}

func (h *Help) Draw(screen tcell.Screen) {
	h.DrawForSubclass(screen, h)

	x, y, width, height := h.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	if h.status != nil {
		status := h.status()
		if w := soilview.TextWidth(status); w > 0 && w < width {
			soilview.PrintWithStyle(screen, status, x+width-w, y, w, soilview.AlignmentLeft, h.Styles.DescStyle, true)
			width -= w + 1
		}
	}
	if h.keyMap == nil {
		return
	}

	cursor := x
	for _, s := range h.segments(h.keyMap.ShortHelp(), width) {
		cursor += soilview.PrintWithStyle(screen, s.text, cursor, y, x+width-cursor, soilview.AlignmentLeft, s.style, true)
	}
}

// Line returns the help line for maxWidth cells as plain text.
func (h *Help) Line(bindings []keybind.Keybind, maxWidth int) string {
	var line string
	for _, s := range h.segments(bindings, maxWidth) {
		line += s.text
	}
	return line
}

type segment struct {
	text  string
	style tcell.Style
}

func (h *Help) segments(bindings []keybind.Keybind, maxWidth int) []segment {
	var out []segment
	for _, kb := range bindings {
		if !kb.Enabled() {
			continue
		}
		item := itemSegments(kb.Help(), h.Styles)
		if len(item) == 0 {
			continue
		}

		candidate := append([]segment(nil), out...)
		if len(candidate) > 0 {
			candidate = append(candidate, segment{text: h.separator, style: h.Styles.SeparatorStyle})
		}
		candidate = append(candidate, item...)
		if maxWidth > 0 && width(candidate) > maxWidth {
			// The ellipsis is only added when it fits entirely.
			tail := []segment{{text: " " + h.ellipsis, style: h.Styles.EllipsisStyle}}
			if len(out) > 0 && width(out)+width(tail) <= maxWidth {
				out = append(out, tail...)
			}
			return out
		}
		out = candidate
	}
	return out
}

func itemSegments(help keybind.Help, styles Styles) []segment {
	switch {
	case help.Key == "" && help.Desc == "":
		return nil
	case help.Key == "":
		return []segment{{text: help.Desc, style: styles.DescStyle}}
	case help.Desc == "":
		return []segment{{text: help.Key, style: styles.KeyStyle}}
	}
	return []segment{
		{text: help.Key, style: styles.KeyStyle},
		{text: " " + help.Desc, style: styles.DescStyle},
	}
}

func width(segments []segment) int {
	w := 0
	for _, s := range segments {
		w += soilview.TextWidth(s.text)
	}
	return w
}
