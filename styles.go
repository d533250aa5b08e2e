package soilview

import "github.com/gdamore/tcell/v2"

// Theme holds the colors primitives are created with.
type Theme struct {
	PrimitiveBackgroundColor tcell.Color
	BorderColor              tcell.Color
	TitleColor               tcell.Color
	PrimaryTextColor         tcell.Color
	// Labels, group headers.
	SecondaryTextColor tcell.Color
	// Placeholders such as loading items.
	TertiaryTextColor tcell.Color
	// Background of the item under the cursor.
	SelectedBackgroundColor tcell.Color
}

// Styles is the theme used by new primitives.
var Styles = Theme{
	PrimitiveBackgroundColor: tcell.ColorBlack,
	BorderColor:              tcell.ColorWhite,
	TitleColor:               tcell.ColorWhite,
	PrimaryTextColor:         tcell.ColorWhite,
	SecondaryTextColor:       tcell.ColorYellow,
	TertiaryTextColor:        tcell.ColorGray,
	SelectedBackgroundColor:  tcell.ColorNavy,
}
