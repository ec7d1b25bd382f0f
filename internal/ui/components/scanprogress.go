package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fscan/internal/scan"
	"github.com/sadopc/fscan/internal/ui/style"
	"github.com/sadopc/fscan/internal/util"
)

// RenderScanProgress renders the centered progress box shown before the
// first match arrives.
func RenderScanProgress(theme style.Theme, p scan.Progress, width, height int) string {
	boxWidth := 50
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	stat := lipgloss.NewStyle().Foreground(theme.TextSecondary)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Render("  Scanning..."),
		"",
		stat.Render(fmt.Sprintf("  Entries: %s", util.FormatCount(p.Entries))),
		stat.Render(fmt.Sprintf("  Dirs:    %s", util.FormatCount(p.Dirs))),
		stat.Render(fmt.Sprintf("  Matches: %s", util.FormatCount(p.Matches))),
		stat.Render(fmt.Sprintf("  Speed:   %s items/s", util.FormatCount(int64(p.ItemsPerSecond())))),
	}
	if p.Errors > 0 {
		lines = append(lines, theme.ErrorText.Render(fmt.Sprintf("  Errors:  %d", p.Errors)))
	}
	lines = append(lines, "",
		lipgloss.NewStyle().Foreground(theme.TextMuted).Render(fmt.Sprintf("  Elapsed: %.1fs   x to stop", p.Duration.Seconds())),
	)

	box := theme.ModalStyle.Width(boxWidth).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// ProgressLine summarizes a running scan in one line for the status bar.
func ProgressLine(p scan.Progress) string {
	return fmt.Sprintf("scanning %s entries, %s dirs, %s/s",
		util.FormatCount(p.Entries),
		util.FormatCount(p.Dirs),
		util.FormatCount(int64(p.ItemsPerSecond())),
	)
}
