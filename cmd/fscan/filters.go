package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sadopc/fscan/internal/config"
	"github.com/sadopc/fscan/internal/filter"
	"github.com/sadopc/fscan/internal/fsys"
	"github.com/sadopc/fscan/internal/model"
)

// filterSpec is the parsed, source-independent part of the filter flags.
type filterSpec struct {
	suffixes    []string
	categories  []model.FileCategory
	contains    []string
	notContains []string
	globs       []string
	excludes    []string
	filesOnly   bool
	dirsOnly    bool
	emptyDirs   bool
	skipHidden  bool
	minSize     int64
	newerThan   time.Time
}

func parseFilters(o *options, cfg *config.Config, now time.Time) (filterSpec, error) {
	spec := filterSpec{
		suffixes:    o.suffixes,
		contains:    trimList(o.contains),
		notContains: trimList(o.notContains),
		globs:       trimList(o.globs),
		excludes:    trimList(o.excludes),
		filesOnly:   o.filesOnly,
		dirsOnly:    o.dirsOnly || o.emptyDirs,
		emptyDirs:   o.emptyDirs,
		skipHidden:  cfg.Scan.SkipHidden,
	}

	if spec.filesOnly && spec.dirsOnly {
		return filterSpec{}, errors.New("--files cannot be combined with --dirs or --empty-dirs")
	}

	for _, name := range o.categories {
		cat, ok := model.ParseCategory(name)
		if !ok {
			return filterSpec{}, fmt.Errorf("unknown category %q (want one of %s)", name, categoryList())
		}
		spec.categories = append(spec.categories, cat)
	}

	if o.minSize != "" {
		n, err := humanize.ParseBytes(o.minSize)
		if err != nil {
			return filterSpec{}, fmt.Errorf("invalid --min-size: %w", err)
		}
		spec.minSize = int64(n)
	}
	if o.newer < 0 {
		return filterSpec{}, errors.New("--newer must not be negative")
	}
	if o.newer > 0 {
		spec.newerThan = now.Add(-o.newer)
	}
	return spec, nil
}

// resultRule builds the rule deciding which entries are reported. Empty
// directory checks read through src, so each source gets its own rule.
func (f filterSpec) resultRule(src fsys.FS) (*filter.Rule, error) {
	b := filter.NewBuilder().
		Suffixes(f.suffixes...).
		Category(f.categories...).
		NameContains(f.contains...).
		NameExcludes(f.notContains...).
		Glob(f.globs...)

	if f.skipHidden {
		b.SkipHidden()
	}
	switch {
	case f.filesOnly:
		b.OnlyFiles()
	case f.dirsOnly:
		b.OnlyDirs()
	}
	if f.minSize > 0 {
		b.Custom(filter.MinSize(f.minSize))
	}
	if !f.newerThan.IsZero() {
		b.Custom(filter.ModifiedSince(f.newerThan))
	}
	if f.emptyDirs {
		b.Custom(filter.EmptyDir(src))
	}
	return b.Build()
}

// preListingRule decides which directories are descended into. It is nil
// when nothing is pruned.
func (f filterSpec) preListingRule() *filter.Rule {
	if len(f.excludes) == 0 && !f.skipHidden {
		return nil
	}
	b := filter.NewBuilder().NameExcludes(f.excludes...)
	if f.skipHidden {
		b.SkipHidden()
	}
	return b.MustBuild()
}

// trimList trims each comma-separated flag item and drops blank ones.
func trimList(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func categoryList() string {
	names := make([]string, 0, len(model.Categories))
	for _, cat := range model.Categories {
		names = append(names, strings.ToLower(model.CategoryName(cat)))
	}
	return strings.Join(names, ", ")
}
