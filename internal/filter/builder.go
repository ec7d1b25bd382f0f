package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sadopc/fscan/internal/model"
)

// Builder accumulates filter settings. It is not safe for concurrent use;
// the Rule it builds is.
type Builder struct {
	suffixes   map[string]struct{}
	contains   []string
	excludes   []string
	skipHidden bool
	kind       Kind
	custom     []Predicate
	err        error
}

// NewBuilder returns a builder whose rule matches everything.
func NewBuilder() *Builder {
	return &Builder{suffixes: make(map[string]struct{})}
}

// Suffixes allows entries whose extension is one of suffixes. Suffixes are
// case-insensitive and may be given with or without the leading dot. The
// empty string selects names without an extension.
func (b *Builder) Suffixes(suffixes ...string) *Builder {
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		b.suffixes[strings.TrimPrefix(s, ".")] = struct{}{}
	}
	return b
}

// Category allows every extension of the given file categories.
func (b *Builder) Category(cats ...model.FileCategory) *Builder {
	for _, cat := range cats {
		b.Suffixes(model.Extensions(cat)...)
	}
	return b
}

// NameContains keeps entries whose name contains any of subs, ignoring case.
// Surrounding whitespace is dropped, as are blank items.
func (b *Builder) NameContains(subs ...string) *Builder {
	b.contains = appendLower(b.contains, subs)
	return b
}

// NameExcludes drops entries whose name contains any of subs, ignoring case.
// Surrounding whitespace is dropped, as are blank items.
func (b *Builder) NameExcludes(subs ...string) *Builder {
	b.excludes = appendLower(b.excludes, subs)
	return b
}

func appendLower(dst, subs []string) []string {
	for _, s := range subs {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}

// SkipHidden rejects dot-files and dot-directories.
func (b *Builder) SkipHidden() *Builder {
	b.skipHidden = true
	return b
}

// OnlyFiles restricts matches to non-directories.
func (b *Builder) OnlyFiles() *Builder {
	b.kind = KindFiles
	return b
}

// OnlyDirs restricts matches to directories.
func (b *Builder) OnlyDirs() *Builder {
	b.kind = KindDirs
	return b
}

// Custom adds predicates that must all pass.
func (b *Builder) Custom(preds ...Predicate) *Builder {
	for _, p := range preds {
		if p != nil {
			b.custom = append(b.custom, p)
		}
	}
	return b
}

// Glob adds a predicate that passes when the entry matches any of patterns.
// Patterns containing a slash are matched against the slash-separated path,
// others against the base name. Blank patterns are ignored. Compile errors
// surface from Build.
func (b *Builder) Glob(patterns ...string) *Builder {
	var byName, byPath []glob.Glob
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			if b.err == nil {
				b.err = fmt.Errorf("invalid glob %q: %w", p, err)
			}
			continue
		}
		if strings.Contains(p, "/") {
			byPath = append(byPath, g)
		} else {
			byName = append(byName, g)
		}
	}
	if len(byName) == 0 && len(byPath) == 0 {
		return b
	}

	return b.Custom(func(e model.Entry) bool {
		for _, g := range byName {
			if g.Match(e.Name) {
				return true
			}
		}
		if len(byPath) > 0 {
			p := filepath.ToSlash(e.Path)
			for _, g := range byPath {
				if g.Match(p) {
					return true
				}
			}
		}
		return false
	})
}

// Build compiles the accumulated settings into an immutable Rule.
func (b *Builder) Build() (*Rule, error) {
	if b.err != nil {
		return nil, b.err
	}

	r := &Rule{
		skipHidden: b.skipHidden,
		kind:       b.kind,
	}
	if len(b.suffixes) > 0 {
		r.suffixes = make(map[string]struct{}, len(b.suffixes))
		for s := range b.suffixes {
			r.suffixes[s] = struct{}{}
		}
	}
	r.contains = append([]string(nil), b.contains...)
	r.excludes = append([]string(nil), b.excludes...)
	r.custom = append([]Predicate(nil), b.custom...)
	return r, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Rule {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}
