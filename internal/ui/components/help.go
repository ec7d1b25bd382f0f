package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fscan/internal/ui/style"
)

type helpBind struct{ key, desc string }

var helpSections = []struct {
	name  string
	binds []helpBind
}{
	{"Navigation", []helpBind{
		{"j/k", "Move down/up"},
		{"PgDn/PgUp", "Move a page"},
		{"g/G", "First / last match"},
	}},
	{"Views", []helpBind{
		{"1", "Match list"},
		{"2", "Category breakdown"},
	}},
	{"Sorting", []helpBind{
		{"p", "Sort by path"},
		{"n", "Sort by name"},
		{"s", "Sort by size"},
		{"M", "Sort by modification time"},
	}},
	{"Scan", []helpBind{
		{"r", "Rescan all roots"},
		{"x", "Stop scanning"},
	}},
	{"Actions", []helpBind{
		{"Space", "Mark/unmark match"},
		{"d", "Delete marked/current"},
		{"E", "Export matches to JSON"},
		{".", "Show/hide hidden matches"},
	}},
	{"General", []helpBind{
		{"?", "Toggle help"},
		{"q", "Quit"},
	}},
}

// RenderHelp renders the help overlay.
func RenderHelp(theme style.Theme, width, height int) string {
	boxWidth := 60
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	lines := []string{theme.ModalTitle.Render("  fscan - Keyboard Shortcuts"), ""}

	section := lipgloss.NewStyle().Bold(true).Foreground(theme.Accent)
	keyStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Width(14)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextSecondary)
	for _, sec := range helpSections {
		lines = append(lines, section.Render("  "+sec.name))
		for _, b := range sec.binds {
			lines = append(lines, fmt.Sprintf("%s %s", keyStyle.Render("    "+b.key), descStyle.Render(b.desc)))
		}
		lines = append(lines, "")
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.TextMuted).Render("  Press ? or Esc to close"))

	box := theme.ModalStyle.Width(boxWidth).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
