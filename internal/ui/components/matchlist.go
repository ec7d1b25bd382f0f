package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sadopc/fscan/internal/model"
	"github.com/sadopc/fscan/internal/ui/style"
	"github.com/sadopc/fscan/internal/util"
)

// MatchList renders the scrolling list of matched entries.
type MatchList struct {
	Theme  style.Theme
	Layout style.Layout
	Items  []model.Entry
	Cursor int
	Offset int
	Marked map[string]bool
	// MaxSize scales the size bars; usually the largest visible match.
	MaxSize int64
	// Roots are trimmed from the front of displayed paths.
	Roots []string
}

// Render renders the visible window of the list.
func (ml *MatchList) Render() string {
	width := ml.Layout.ContentWidth()
	height := ml.Layout.ContentHeight()

	if len(ml.Items) == 0 {
		empty := lipgloss.NewStyle().Foreground(ml.Theme.TextMuted).Render("  (no matches)")
		lines := []string{style.FullWidth(empty, width)}
		for len(lines) < height {
			lines = append(lines, strings.Repeat(" ", width))
		}
		return strings.Join(lines, "\n")
	}

	end := ml.Offset + height
	if end > len(ml.Items) {
		end = len(ml.Items)
	}

	lines := make([]string, 0, height)
	for i := ml.Offset; i < end; i++ {
		e := ml.Items[i]
		lines = append(lines, ml.renderRow(e, i == ml.Cursor, ml.Marked[e.Path], width))
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// RenderColumnTitles renders the line above the list.
func (ml *MatchList) RenderColumnTitles() string {
	nameW := ml.Layout.NameWidth()
	line := fmt.Sprintf("     %-*s %10s %-14s", nameW, "Path", "Size", " Modified")
	return ml.Theme.ColumnTitle.Render(style.FullWidth(line, ml.Layout.ContentWidth()))
}

func (ml *MatchList) renderRow(e model.Entry, selected, marked bool, width int) string {
	nameW := ml.Layout.NameWidth()
	barW := ml.Layout.BarWidth()

	indicator := "  "
	switch {
	case selected && marked:
		indicator = ml.Theme.MarkedIndicator.Render("*") + ml.Theme.CursorIndicator.Render(">")
	case selected:
		indicator = ml.Theme.CursorIndicator.Render(" >")
	case marked:
		indicator = ml.Theme.MarkedIndicator.Render("* ")
	}

	icon := util.Icon(e)
	iconCell := icon + strings.Repeat(" ", max(3-ansi.StringWidth(icon), 1))

	name := ml.styledPath(e, nameW)
	name += strings.Repeat(" ", max(nameW-ansi.StringWidth(name), 0))

	size := ""
	if !e.Dir {
		size = util.FormatSize(e.Size)
	}
	sizeStyled := ml.Theme.SizeText.Width(10).Render(size)
	age := lipgloss.NewStyle().Foreground(ml.Theme.TextMuted).Width(14).Render(" " + util.FormatAge(e.ModTime))

	bar := ""
	if barW > 0 && !e.Dir {
		bar = ml.Theme.BarGradient(barW, ratio(e.Size, ml.MaxSize))
	}

	row := indicator + iconCell + name + " " + sizeStyled + " " + age + " " + bar
	row = style.FullWidth(row, width)
	if selected {
		return ml.Theme.SelectedRow.Width(width).Render(row)
	}
	return row
}

// styledPath renders the entry path relative to its root: the parent part
// muted and the name highlighted, cut from the left when too long so the
// name stays visible.
func (ml *MatchList) styledPath(e model.Entry, width int) string {
	p := ml.relative(e.Path)
	if e.Dir {
		p += "/"
	}
	if ansi.StringWidth(p) > width {
		p = util.TruncateLeft(p, width)
	}

	cut := strings.LastIndex(p, e.Name)
	if cut < 0 {
		return ansi.Truncate(ml.Theme.FileName.Render(p), width, "")
	}
	nameStyle := ml.Theme.FileName
	if e.Dir {
		nameStyle = ml.Theme.DirName
	}
	out := ml.Theme.PathPrefix.Render(p[:cut]) + nameStyle.Render(p[cut:])
	return ansi.Truncate(out, width, "")
}

func (ml *MatchList) relative(p string) string {
	for _, root := range ml.Roots {
		if root == "" || !strings.HasPrefix(p, root) {
			continue
		}
		rest := p[len(root):]
		if !isSep(root[len(root)-1]) {
			if rest == "" || !isSep(rest[0]) {
				continue
			}
			rest = rest[1:]
		}
		if rest != "" {
			return rest
		}
	}
	return p
}

func isSep(c byte) bool { return c == '/' || c == '\\' }

func ratio(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// EnsureVisible adjusts offset to keep cursor visible.
func (ml *MatchList) EnsureVisible() {
	height := ml.Layout.ContentHeight()
	if ml.Cursor < ml.Offset {
		ml.Offset = ml.Cursor
	}
	if ml.Cursor >= ml.Offset+height {
		ml.Offset = ml.Cursor - height + 1
	}
	if ml.Offset < 0 {
		ml.Offset = 0
	}
}
