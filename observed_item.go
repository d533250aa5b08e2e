package soilview

import (
	"fmt"

	"github.com/ayn2op/soilview/hydrate"
	"github.com/gdamore/tcell/v2"
)

// ItemProps is what an [ItemBuilder] knows about the entry it builds.
type ItemProps struct {
	// Position in the displayed list and whether the entry is the first or
	// last one.
	Index       int
	Top, Bottom bool

	Key      string
	DataType string
	// Set for connection lists.
	ParentType, ParentKey string

	// Stamp is the value stored in the key list, usually a timestamp.
	Stamp any
	Data  hydrate.Data

	// Observed is set while the entry is within the hydration margin.
	Observed bool
	Selected bool
	// Revealed is unset while an animated entry waits for its turn.
	Revealed bool
}

// ListItem is a primitive that can be measured for a width.
type ListItem interface {
	Primitive
	Height(width int) int
}

// ItemBuilder returns the primitive drawn for one entry.
type ItemBuilder func(props ItemProps) ListItem

// DefaultItemBuilder shows the key followed by the hydrated value.
func DefaultItemBuilder(props ItemProps) ListItem {
	var text string
	color := Styles.PrimaryTextColor
	switch {
	case !props.Revealed:
		text = ""
	case props.Data.State == hydrate.Ready:
		text = fmt.Sprintf("%s  %v", props.Key, props.Data.Value)
	case props.Data.State == hydrate.Missing && props.Data.Err != nil:
		text = fmt.Sprintf("%s  error: %v", props.Key, props.Data.Err)
		color = tcell.ColorRed
	case props.Data.State == hydrate.Missing:
		text = props.Key + "  (missing)"
		color = Styles.TertiaryTextColor
	default:
		text = props.Key + "  " + string(Ellipsis)
		color = Styles.TertiaryTextColor
	}

	item := NewTextItem(text).SetColor(color)
	if props.Selected {
		item.SetBackgroundColor(Styles.SelectedBackgroundColor)
	}
	return item
}

// TextItem is a ListItem showing wrapped text.
type TextItem struct {
	*Box
	text  string
	color tcell.Color
}

func NewTextItem(text string) *TextItem {
	return &TextItem{
		Box:   NewBox(),
		text:  text,
		color: Styles.PrimaryTextColor,
	}
}

func (t *TextItem) SetText(text string) *TextItem {
	if t.text != text {
		t.text = text
		t.MarkDirty()
	}
	return t
}

func (t *TextItem) GetText() string {
	return t.text
}

func (t *TextItem) SetColor(color tcell.Color) *TextItem {
	t.color = color
	return t
}

// Height returns the number of lines the text wraps to.
func (t *TextItem) Height(width int) int {
	return max(len(WrapText(t.text, width)), 1)
}

func (t *TextItem) Draw(screen tcell.Screen) {
	t.DrawForSubclass(screen, t)
	x, y, width, height := t.GetInnerRect()
	for i, line := range WrapText(t.text, width) {
		if i >= height {
			break
		}
		Print(screen, line, x, y+i, width, AlignmentLeft, t.color)
	}
}
