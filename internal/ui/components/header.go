package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fscan/internal/ui/style"
	"github.com/sadopc/fscan/internal/util"
)

// RenderHeader renders the top bar: program name, scan roots and match
// totals.
func RenderHeader(theme style.Theme, roots []string, matches, totalSize int64, width int) string {
	if width < 10 {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Render(" fscan")
	stats := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(
		fmt.Sprintf("%s matches  %s ", util.FormatCount(matches), util.FormatSize(totalSize)),
	)

	titleW := lipgloss.Width(title)
	statsW := lipgloss.Width(stats)

	pathMaxW := width - titleW - statsW - 3
	rootStr := strings.Join(roots, ", ")
	if pathMaxW > 5 {
		rootStr = util.TruncateLeft(rootStr, pathMaxW)
	} else {
		rootStr = ""
	}
	path := lipgloss.NewStyle().Foreground(theme.TextPrimary).Render("  " + rootStr)

	gap := width - titleW - lipgloss.Width(path) - statsW
	if gap < 1 {
		gap = 1
	}
	return theme.HeaderStyle.Width(width).Render(title + path + strings.Repeat(" ", gap) + stats)
}
