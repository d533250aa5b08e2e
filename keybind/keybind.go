// Package keybind matches key events against named bindings such as
// "ctrl+d" or "pgdn".
package keybind

import (
	"slices"
	"strings"

	"github.com/gdamore/tcell/v2"
)

type Keybind struct {
	keys     []string
	help     Help
	disabled bool
}

type Option func(*Keybind)

func NewKeybind(options ...Option) Keybind {
	k := &Keybind{}
	for _, option := range options {
		option(k)
	}
	return *k
}

func WithKeys(keys ...string) Option {
	return func(k *Keybind) {
		k.keys = normalizeKeys(keys...)
	}
}

func WithHelp(key, desc string) Option {
	return func(k *Keybind) {
		k.help = Help{Key: key, Desc: desc}
	}
}

// WithDisabled creates the binding disabled.
func WithDisabled() Option {
	return func(k *Keybind) {
		k.disabled = true
	}
}

func (k Keybind) Keys() []string {
	return k.keys
}

func (k *Keybind) SetKeys(keys ...string) {
	k.keys = normalizeKeys(keys...)
}

func (k Keybind) Help() Help {
	return k.help
}

// Enabled reports whether the binding has keys and was not disabled.
func (k Keybind) Enabled() bool {
	return !k.disabled && len(k.keys) > 0
}

func (k *Keybind) SetEnabled(enabled bool) {
	k.disabled = !enabled
}

type Help struct {
	Key  string
	Desc string
}

// Matches reports whether event triggers one of the enabled keybinds.
func Matches(event *tcell.EventKey, keybinds ...Keybind) bool {
	if event == nil {
		return false
	}
	key := EventString(event)
	for _, keybind := range keybinds {
		if keybind.Enabled() && slices.Contains(keybind.keys, key) {
			return true
		}
	}
	return false
}

func normalizeKeys(keys ...string) []string {
	normalized := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = normalizeKey(key); key != "" {
			normalized = append(normalized, key)
		}
	}
	return normalized
}

// normalizeKey brings a key name into the form EventString produces:
// modifiers in ctrl, alt, shift, meta order joined by "+", then the key.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	// "+" alone is a key, not a separator.
	if key == "+" {
		return key
	}

	var mods []string
	primary := ""
	for _, part := range strings.Split(key, "+") {
		part = strings.TrimSpace(part)
		switch strings.ToLower(part) {
		case "":
		case "ctrl", "control":
			mods = append(mods, "ctrl")
		case "alt":
			mods = append(mods, "alt")
		case "shift":
			mods = append(mods, "shift")
		case "meta":
			mods = append(mods, "meta")
		default:
			primary = normalizePrimaryKey(part)
		}
	}
	if primary == "" {
		return ""
	}
	if primary == "backtab" {
		mods = append(mods, "shift")
		primary = "tab"
	}
	if len(mods) > 0 && len([]rune(primary)) == 1 {
		primary = strings.ToLower(primary)
	}
	return joinKey(mods, primary)
}

func normalizePrimaryKey(key string) string {
	if len([]rune(key)) == 1 {
		return key
	}
	switch strings.ToLower(key) {
	case "esc", "escape":
		return "esc"
	case "return":
		return "enter"
	case "pageup":
		return "pgup"
	case "pagedown":
		return "pgdn"
	case "space":
		return " "
	}
	return strings.ToLower(key)
}

func joinKey(mods []string, primary string) string {
	if len(mods) == 0 {
		return primary
	}
	order := []string{"ctrl", "alt", "shift", "meta"}
	sorted := make([]string, 0, len(mods)+1)
	for _, mod := range order {
		if slices.Contains(mods, mod) {
			sorted = append(sorted, mod)
		}
	}
	return strings.Join(append(sorted, primary), "+")
}

// EventString returns the normalized name of event, e.g. "ctrl+d", "pgdn"
// or "j".
func EventString(event *tcell.EventKey) string {
	key := event.Key()
	primary := keyName(key)
	// Enter, tab and backspace share their codes with ctrl keys.
	if primary == "" && key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return "ctrl+" + string(rune('a'+(key-tcell.KeyCtrlA)))
	}

	var mods []string
	m := event.Modifiers()
	if m&tcell.ModCtrl != 0 {
		mods = append(mods, "ctrl")
	}
	if m&tcell.ModAlt != 0 {
		mods = append(mods, "alt")
	}
	if m&tcell.ModMeta != 0 {
		mods = append(mods, "meta")
	}

	if key == tcell.KeyRune {
		// Shift is already part of the rune.
		return joinKey(mods, string(event.Rune()))
	}
	if m&tcell.ModShift != 0 {
		mods = append(mods, "shift")
	}
	if primary == "" {
		return normalizeKey(event.Name())
	}
	if key == tcell.KeyBacktab {
		mods = append(mods, "shift")
	}
	return joinKey(mods, primary)
}

func keyName(key tcell.Key) string {
	switch key {
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyEscape:
		return "esc"
	case tcell.KeyTab, tcell.KeyBacktab:
		return "tab"
	case tcell.KeyHome:
		return "home"
	case tcell.KeyEnd:
		return "end"
	case tcell.KeyUp:
		return "up"
	case tcell.KeyDown:
		return "down"
	case tcell.KeyLeft:
		return "left"
	case tcell.KeyRight:
		return "right"
	case tcell.KeyPgUp:
		return "pgup"
	case tcell.KeyPgDn:
		return "pgdn"
	case tcell.KeyDelete:
		return "delete"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "backspace"
	case tcell.KeyInsert:
		return "insert"
	}
	return ""
}
