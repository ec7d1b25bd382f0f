package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fscan/internal/model"
	"github.com/sadopc/fscan/internal/scan"
	"github.com/sadopc/fscan/internal/ui/style"
	"github.com/sadopc/fscan/internal/util"
)

// StatusInfo holds the current state for the status bar. Outcome describes
// the last finished scan, e.g. "done in 1.2s".
type StatusInfo struct {
	Visible     int
	MarkedCount int
	MarkedSize  int64
	ShowHidden  bool
	Scanning    bool
	Progress    scan.Progress
	Outcome     string
	Errors      int64
	Message     string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(theme style.Theme, info StatusInfo, width int) string {
	if info.Message != "" {
		msg := " " + lipgloss.NewStyle().Foreground(theme.Warning).Bold(true).Render(info.Message)
		return theme.StatusBarStyle.Width(width).Render(msg)
	}

	parts := []string{fmt.Sprintf("%d shown", info.Visible)}
	if !info.ShowHidden {
		parts = append(parts, "hidden off")
	}
	if info.Scanning {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Secondary).Render(ProgressLine(info.Progress)))
	} else if info.Outcome != "" {
		parts = append(parts, info.Outcome)
	}
	if info.Errors > 0 {
		parts = append(parts, theme.ErrorText.Render(fmt.Sprintf("%d errors", info.Errors)))
	}
	if info.MarkedCount > 0 {
		parts = append(parts, theme.MarkedIndicator.Render(
			fmt.Sprintf("* %d marked (%s)", info.MarkedCount, util.FormatSize(info.MarkedSize)),
		))
	}
	left := " " + strings.Join(parts, " | ")

	hints := []struct{ key, desc string }{
		{"?", "help"},
		{"x", "stop"},
		{"d", "delete"},
		{"q", "quit"},
	}
	if !info.Scanning {
		hints[1] = struct{ key, desc string }{"r", "rescan"}
	}
	rightParts := make([]string, 0, len(hints))
	for _, h := range hints {
		k := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(h.key)
		d := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(" " + h.desc)
		rightParts = append(rightParts, k+d)
	}
	right := strings.Join(rightParts, "  ") + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// View tab labels, in key order.
var viewTabs = []string{"Matches", "Categories"}

// RenderTabBar renders the view tabs and the active sort.
func RenderTabBar(theme style.Theme, activeView int, sort model.SortConfig, width int) string {
	tabs := make([]string, 0, len(viewTabs))
	for i, tab := range viewTabs {
		label := fmt.Sprintf(" %d %s ", i+1, tab)
		if i == activeView {
			tabs = append(tabs, theme.TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, theme.TabInactiveStyle.Render(label))
		}
	}
	left := " " + strings.Join(tabs, " ")

	sortNames := map[model.SortField]string{
		model.SortByPath:  "Path",
		model.SortByName:  "Name",
		model.SortBySize:  "Size",
		model.SortByMtime: "Mtime",
	}
	dir := "asc"
	if sort.Order == model.SortDesc {
		dir = "desc"
	}
	label := lipgloss.NewStyle().Foreground(theme.TextMuted).Render(
		fmt.Sprintf("Sort: %s %s ", sortNames[sort.Field], dir),
	)

	gap := width - lipgloss.Width(left) - lipgloss.Width(label)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().
		Foreground(theme.TextSecondary).
		Background(theme.BgLight).
		Width(width).
		Render(left + strings.Repeat(" ", gap) + label)
}
