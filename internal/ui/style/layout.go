package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minNameWidth = 12
	maxBarWidth  = 20
)

// Layout divides the terminal between the chrome and the match list.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a layout for the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentHeight returns the number of list rows that fit between the
// header, tab bar, column titles and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// ContentWidth returns the width available for the main content area.
func (l Layout) ContentWidth() int {
	if l.Width < 20 {
		return 20
	}
	return l.Width
}

// BarWidth returns the width of the relative-size bar. Narrow terminals
// drop the bar before squeezing names.
func (l Layout) BarWidth() int {
	bar := l.ContentWidth() - l.RowOverhead() - minNameWidth
	if bar < 0 {
		bar = 0
	}
	if bar > maxBarWidth {
		bar = maxBarWidth
	}
	return bar
}

// NameWidth returns the width left for the entry path.
func (l Layout) NameWidth() int {
	w := l.ContentWidth() - l.RowOverhead() - l.BarWidth()
	if w < minNameWidth {
		w = minNameWidth
	}
	return w
}

// RowOverhead is the fixed part of a match row:
//
//	mark(2) icon(3) path " "(1) size(10) " "(1) age(14) " "(1) bar
func (l Layout) RowOverhead() int {
	return 32
}

// Center centers content in the available width.
func (l Layout) Center(content string) string {
	return lipgloss.PlaceHorizontal(l.Width, lipgloss.Center, content)
}

// FullWidth pads s with spaces to exactly width cells. Wider strings are
// returned unchanged.
func FullWidth(s string, width int) string {
	visLen := lipgloss.Width(s)
	if visLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visLen)
}
