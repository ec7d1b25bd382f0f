package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/fscan/internal/model"
	"github.com/sadopc/fscan/internal/ui/style"
	"github.com/sadopc/fscan/internal/util"
)

// CategoryStats aggregates matched files of one category.
type CategoryStats struct {
	Category  model.FileCategory
	FileCount int64
	TotalSize int64
	Suffixes  map[string]int64
}

// AggregateCategories groups matched files by category, largest first.
// Directories are not counted.
func AggregateCategories(entries []model.Entry) []CategoryStats {
	byCat := make(map[model.FileCategory]*CategoryStats)
	for _, e := range entries {
		if e.Dir {
			continue
		}
		cat := e.Category()
		st, ok := byCat[cat]
		if !ok {
			st = &CategoryStats{Category: cat, Suffixes: make(map[string]int64)}
			byCat[cat] = st
		}
		st.FileCount++
		st.TotalSize += e.Size
		if sfx := e.Suffix(); sfx != "" {
			st.Suffixes[sfx] += e.Size
		}
	}

	out := make([]CategoryStats, 0, len(byCat))
	for _, st := range byCat {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSize != out[j].TotalSize {
			return out[i].TotalSize > out[j].TotalSize
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// RenderCategories renders the per-category breakdown of the matches.
func RenderCategories(theme style.Theme, stats []CategoryStats, width, height int) string {
	if height <= 0 {
		return ""
	}
	if len(stats) == 0 {
		return lipgloss.NewStyle().Foreground(theme.TextMuted).Render("  (no matched files)")
	}

	var totalSize, totalCount int64
	for _, s := range stats {
		totalSize += s.TotalSize
		totalCount += s.FileCount
	}

	const catW, countW, sizeW = 14, 10, 12
	barW := width - catW - countW - sizeW - 16
	if barW < 10 {
		barW = 10
	}
	if barW > 30 {
		barW = 30
	}

	hdrStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.TextPrimary)
	muted := lipgloss.NewStyle().Foreground(theme.TextMuted)

	lines := []string{
		hdrStyle.Render(fmt.Sprintf("  %-*s %*s %*s  %s", catW, "Category", countW, "Files", sizeW, "Size", "Share")),
	}
	sep := muted.Render("  " + strings.Repeat("-", max(width-4, 0)))
	lines = append(lines, sep)

	for _, s := range stats {
		pct := util.Percent(s.TotalSize, totalSize)
		if totalSize == 0 {
			pct = util.Percent(s.FileCount, totalCount)
		}
		color := theme.CategoryColor(s.Category)

		name := lipgloss.NewStyle().Foreground(color).Bold(true).Width(catW).Render(model.CategoryName(s.Category))
		count := lipgloss.NewStyle().Foreground(theme.TextSecondary).Width(countW).Align(lipgloss.Right).Render(util.FormatCount(s.FileCount))
		size := lipgloss.NewStyle().Foreground(theme.TextSecondary).Width(sizeW).Align(lipgloss.Right).Render(util.FormatSize(s.TotalSize))
		bar := categoryBar(barW, pct/100, color, theme.TextMuted)

		lines = append(lines, fmt.Sprintf("  %s %s %s  %s%s", name, count, size, bar, muted.Render(fmt.Sprintf(" %5.1f%%", pct))))
		if top := topSuffixes(s.Suffixes, 3); len(top) > 0 {
			lines = append(lines, muted.Render("    "+strings.Join(top, ", ")))
		}
	}

	lines = append(lines, sep)
	lines = append(lines, hdrStyle.Render(fmt.Sprintf("  %-*s %*s %*s", catW, "Total", countW, util.FormatCount(totalCount), sizeW, util.FormatSize(totalSize))))

	for len(lines) < height {
		lines = append(lines, "")
	}
	bg := lipgloss.NewStyle().Background(theme.BgDark).Width(max(width, 0))
	for i := range lines[:height] {
		lines[i] = bg.Render(lines[i])
	}
	return strings.Join(lines[:height], "\n")
}

func topSuffixes(sizes map[string]int64, n int) []string {
	type pair struct {
		suffix string
		size   int64
	}
	pairs := make([]pair, 0, len(sizes))
	for s, size := range sizes {
		pairs = append(pairs, pair{s, size})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].size != pairs[j].size {
			return pairs[i].size > pairs[j].size
		}
		return pairs[i].suffix < pairs[j].suffix
	})

	var out []string
	for i := 0; i < n && i < len(pairs); i++ {
		out = append(out, fmt.Sprintf(".%s (%s)", pairs[i].suffix, util.FormatSize(pairs[i].size)))
	}
	return out
}

func categoryBar(width int, ratio float64, color, dim lipgloss.Color) string {
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("=", filled)) +
		lipgloss.NewStyle().Foreground(dim).Render(strings.Repeat("-", width-filled))
}
