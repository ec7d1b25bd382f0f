package model

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// SortField defines what to sort by.
type SortField int

const (
	SortByPath SortField = iota
	SortByName
	SortBySize
	SortByMtime
)

// SortOrder defines ascending or descending.
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

// SortConfig holds sort preferences.
type SortConfig struct {
	Field SortField
	Order SortOrder
	// DirsFirst keeps directories before files regardless of sort.
	DirsFirst bool
}

// DefaultSort returns the default sort config (path ascending).
func DefaultSort() SortConfig {
	return SortConfig{
		Field: SortByPath,
		Order: SortAsc,
	}
}

// SortEntries sorts entries in place according to config.
func SortEntries(entries []Entry, cfg SortConfig) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		if cfg.DirsFirst && a.Dir != b.Dir {
			return a.Dir
		}

		// For descending order, swap a and b so the same less-than
		// comparisons produce the reverse result. This preserves
		// strict weak ordering (equal items return false, not true).
		if cfg.Order == SortDesc {
			a, b = b, a
		}

		switch cfg.Field {
		case SortByName:
			return natural.Less(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortBySize:
			return a.Size < b.Size
		case SortByMtime:
			return a.ModTime.Before(b.ModTime)
		default:
			return natural.Less(a.Path, b.Path)
		}
	})
}
