package ops

import "github.com/sadopc/fscan/internal/model"

// Delta is the difference between two match sets, keyed by path.
type Delta struct {
	Added   []model.Entry
	Removed []model.Entry
	// Changed holds the newer entry for paths whose size, kind or
	// modification time differ.
	Changed []model.Entry
}

// Empty reports whether the two sets were identical.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares an older and a newer match set. Results are sorted by path.
func Diff(older, newer []model.Entry) Delta {
	before := make(map[string]model.Entry, len(older))
	for _, e := range older {
		before[e.Path] = e
	}

	var d Delta
	seen := make(map[string]bool, len(newer))
	for _, e := range newer {
		seen[e.Path] = true
		prev, ok := before[e.Path]
		switch {
		case !ok:
			d.Added = append(d.Added, e)
		case prev.Dir != e.Dir || prev.Size != e.Size || !prev.ModTime.Equal(e.ModTime):
			d.Changed = append(d.Changed, e)
		}
	}
	for _, e := range older {
		if !seen[e.Path] {
			d.Removed = append(d.Removed, e)
		}
	}

	sortCfg := model.DefaultSort()
	model.SortEntries(d.Added, sortCfg)
	model.SortEntries(d.Removed, sortCfg)
	model.SortEntries(d.Changed, sortCfg)
	return d
}
