package soilview

// BorderSet holds the runes a box border is drawn with.
type BorderSet struct {
	Top, Bottom, Left, Right                    rune
	TopLeft, TopRight, BottomLeft, BottomRight rune
}

func BorderSetPlain() BorderSet {
	return BorderSet{
		Top:         '─',
		Bottom:      '─',
		Left:        '│',
		Right:       '│',
		TopLeft:     '┌',
		TopRight:    '┐',
		BottomLeft:  '└',
		BottomRight: '┘',
	}
}

func BorderSetRound() BorderSet {
	b := BorderSetPlain()
	b.TopLeft, b.TopRight, b.BottomLeft, b.BottomRight = '╭', '╮', '╰', '╯'
	return b
}

type Borders uint

const (
	BordersTop Borders = 1 << iota
	BordersBottom
	BordersLeft
	BordersRight

	BordersNone Borders = 0
	BordersAll  Borders = BordersTop | BordersBottom | BordersLeft | BordersRight
)

func (b Borders) Has(flag Borders) bool {
	return b&flag == flag
}
