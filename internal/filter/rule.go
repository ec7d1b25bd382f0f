// Package filter builds immutable predicates that decide which entries a
// scan emits (result filters) or descends into (pre-listing filters).
package filter

import (
	"strings"

	"github.com/sadopc/fscan/internal/model"
)

// Kind restricts a rule to files, directories, or both.
type Kind int

const (
	KindAny Kind = iota
	KindFiles
	KindDirs
)

func (k Kind) String() string {
	switch k {
	case KindFiles:
		return "files"
	case KindDirs:
		return "dirs"
	default:
		return "any"
	}
}

// Predicate is a custom check over an entry. Predicates run before every
// built-in check and must be safe for concurrent use.
type Predicate func(model.Entry) bool

// Rule is a compiled filter. A nil *Rule matches everything.
// Rules are immutable and safe to share between goroutines.
type Rule struct {
	suffixes   map[string]struct{}
	contains   []string
	excludes   []string
	skipHidden bool
	kind       Kind
	custom     []Predicate
}

// Match reports whether e passes the rule.
//
// Custom predicates run first and stop at the first rejection. The hidden
// policy, kind restriction and name checks follow. In dirs-only mode
// directories skip the suffix check.
func (r *Rule) Match(e model.Entry) bool {
	if r == nil {
		return true
	}

	for _, p := range r.custom {
		if !p(e) {
			return false
		}
	}

	if r.skipHidden && e.Hidden {
		return false
	}

	switch r.kind {
	case KindFiles:
		if e.Dir {
			return false
		}
	case KindDirs:
		if !e.Dir {
			return false
		}
		return r.nameAllowed(e.Name)
	}

	return r.suffixAllowed(e.Name) && r.nameAllowed(e.Name)
}

// Kind returns the kind restriction of the rule.
func (r *Rule) Kind() Kind {
	if r == nil {
		return KindAny
	}
	return r.kind
}

// SkipsHidden reports whether hidden entries are rejected.
func (r *Rule) SkipsHidden() bool {
	return r != nil && r.skipHidden
}

func (r *Rule) suffixAllowed(name string) bool {
	if len(r.suffixes) == 0 {
		return true
	}
	_, ok := r.suffixes[model.Suffix(name)]
	return ok
}

func (r *Rule) nameAllowed(name string) bool {
	if len(r.contains) == 0 && len(r.excludes) == 0 {
		return true
	}
	lower := strings.ToLower(name)

	if len(r.contains) > 0 {
		found := false
		for _, s := range r.contains {
			if strings.Contains(lower, s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, s := range r.excludes {
		if strings.Contains(lower, s) {
			return false
		}
	}
	return true
}
