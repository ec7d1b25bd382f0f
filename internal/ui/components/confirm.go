package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fscan/internal/ui/style"
	"github.com/sadopc/fscan/internal/util"
)

const maxConfirmRows = 10

// ConfirmItem is a match pending deletion.
type ConfirmItem struct {
	Path  string
	Size  int64
	IsDir bool
}

// RenderConfirmDialog renders the deletion confirmation modal. Directories
// are removed with everything below them.
func RenderConfirmDialog(theme style.Theme, items []ConfirmItem, width, height int) string {
	boxWidth := 64
	if boxWidth > width-4 {
		boxWidth = width - 4
	}
	pathW := max(boxWidth-22, 8)

	var totalSize int64
	dirs := 0
	for _, item := range items {
		totalSize += item.Size
		if item.IsDir {
			dirs++
		}
	}

	lines := []string{
		theme.ModalTitle.Render("  Delete matches"),
		lipgloss.NewStyle().Foreground(theme.Warning).Render(
			fmt.Sprintf("  %d item(s) will be permanently deleted:", len(items)),
		),
		"",
	}

	for i, item := range items {
		if i == maxConfirmRows {
			lines = append(lines, lipgloss.NewStyle().Foreground(theme.TextMuted).Render(
				fmt.Sprintf("  ... and %d more", len(items)-maxConfirmRows),
			))
			break
		}
		kind := "  F "
		if item.IsDir {
			kind = "  D "
		}
		lines = append(lines,
			lipgloss.NewStyle().Foreground(theme.Error).Render(kind+util.TruncateLeft(item.Path, pathW))+
				lipgloss.NewStyle().Foreground(theme.TextMuted).Render("  "+util.FormatSize(item.Size)),
		)
	}

	lines = append(lines, "")
	total := fmt.Sprintf("  Total: %s", util.FormatSize(totalSize))
	if dirs > 0 {
		total += fmt.Sprintf(" (%d dir(s) removed recursively)", dirs)
	}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(theme.TextPrimary).Render(total), "")

	text := lipgloss.NewStyle().Foreground(theme.TextPrimary)
	lines = append(lines,
		text.Render("  Press ")+
			lipgloss.NewStyle().Bold(true).Foreground(theme.Success).Render("y")+
			text.Render(" to confirm, ")+
			lipgloss.NewStyle().Bold(true).Foreground(theme.Error).Render("n/esc")+
			text.Render(" to cancel"),
	)

	box := theme.ModalStyle.Width(boxWidth).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
