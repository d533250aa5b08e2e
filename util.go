package soilview

import (
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

type Alignment int

const (
	AlignmentLeft Alignment = iota
	AlignmentCenter
	AlignmentRight
)

// Ellipsis marks truncated titles.
const Ellipsis = '…'

// Print prints text at (x, y) without exceeding maxWidth cells and returns the
// width printed. The background already on screen is kept.
func Print(screen tcell.Screen, text string, x, y, maxWidth int, alignment Alignment, color tcell.Color) int {
	return PrintWithStyle(screen, text, x, y, maxWidth, alignment, tcell.StyleDefault.Foreground(color), true)
}

// PrintSimple prints text in the primary text color.
func PrintSimple(screen tcell.Screen, text string, x, y int) {
	Print(screen, text, x, y, math.MaxInt32, AlignmentLeft, Styles.PrimaryTextColor)
}

// PrintWithStyle works like [Print] with a full style. If keepBackground is
// set, the style's background is replaced by what is already on screen.
func PrintWithStyle(screen tcell.Screen, text string, x, y, maxWidth int, alignment Alignment, style tcell.Style, keepBackground bool) int {
	totalWidth, totalHeight := screen.Size()
	if maxWidth <= 0 || text == "" || y < 0 || y >= totalHeight {
		return 0
	}

	// Cut clusters off the front until the text fits, then move the start.
	width := TextWidth(text)
	switch alignment {
	case AlignmentRight:
		for width > maxWidth {
			cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(text, -1)
			width -= uniseg.StringWidth(cluster)
			text = rest
		}
		x += maxWidth - width
	case AlignmentCenter:
		for cut := (width - maxWidth) / 2; cut > 0 && text != ""; {
			cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(text, -1)
			w := uniseg.StringWidth(cluster)
			cut -= w
			width -= w
			text = rest
		}
		if width < maxWidth {
			x += (maxWidth - width) / 2
		}
	}

	printed := 0
	right := x + maxWidth
	state := -1
	for text != "" && x < right && x < totalWidth {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		w := uniseg.StringWidth(cluster)
		if x+w > right {
			break
		}
		if w > 0 {
			finalStyle := style
			if keepBackground {
				_, _, existing, _ := screen.GetContent(x, y)
				_, bg, _ := existing.Decompose()
				finalStyle = finalStyle.Background(bg)
			}
			runes := []rune(cluster)
			screen.SetContent(x, y, runes[0], runes[1:], finalStyle)
		}
		x += w
		printed += w
	}
	return printed
}

// TextWidth returns the number of cells text occupies.
func TextWidth(text string) int {
	return uniseg.StringWidth(text)
}

// WrapText breaks text into lines of at most width cells, breaking between
// words where possible. Newlines always break.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var line strings.Builder
		lineWidth := 0
		for _, word := range strings.Fields(paragraph) {
			w := TextWidth(word)
			if lineWidth > 0 && lineWidth+1+w > width {
				lines = append(lines, line.String())
				line.Reset()
				lineWidth = 0
			}
			// Words wider than the line are split by cluster.
			for w > width {
				head, rest, headWidth := cut(word, width-lineWidth)
				if head == "" {
					break
				}
				if lineWidth > 0 {
					line.WriteByte(' ')
				}
				line.WriteString(head)
				lines = append(lines, line.String())
				line.Reset()
				lineWidth = 0
				word, w = rest, w-headWidth
			}
			if lineWidth > 0 {
				line.WriteByte(' ')
				lineWidth++
			}
			line.WriteString(word)
			lineWidth += w
		}
		lines = append(lines, line.String())
	}
	return lines
}

// cut splits s after at most width cells.
func cut(s string, width int) (head, rest string, headWidth int) {
	state := -1
	rest = s
	for rest != "" {
		cluster, next, _, newState := uniseg.FirstGraphemeClusterInString(rest, state)
		w := uniseg.StringWidth(cluster)
		if headWidth+w > width {
			break
		}
		headWidth += w
		rest, state = next, newState
	}
	return s[:len(s)-len(rest)], rest, headWidth
}
