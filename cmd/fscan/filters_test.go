package main

import (
	"strings"
	"testing"
	"time"

	"github.com/sadopc/fscan/internal/config"
	"github.com/sadopc/fscan/internal/fsys"
	"github.com/sadopc/fscan/internal/model"
)

func TestParseFilters_RejectsFilesWithDirs(t *testing.T) {
	_, err := parseFilters(&options{filesOnly: true, emptyDirs: true}, config.Default(), time.Now())
	if err == nil {
		t.Fatal("expected error for --files with --empty-dirs")
	}
}

func TestParseFilters_UnknownCategory(t *testing.T) {
	_, err := parseFilters(&options{categories: []string{"pictures"}}, config.Default(), time.Now())
	if err == nil || !strings.Contains(err.Error(), "images") {
		t.Fatalf("expected error listing known categories, got %v", err)
	}
}

func TestParseFilters_MinSizeAndNewer(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	spec, err := parseFilters(&options{minSize: "2KiB", newer: time.Hour}, config.Default(), now)
	if err != nil {
		t.Fatalf("parseFilters returned error: %v", err)
	}
	if spec.minSize != 2048 {
		t.Fatalf("expected 2048 bytes, got %d", spec.minSize)
	}
	rule, err := spec.resultRule(fsys.NewMem())
	if err != nil {
		t.Fatalf("resultRule returned error: %v", err)
	}

	fresh := model.Entry{Path: "/d/a.bin", Name: "a.bin", Size: 4096, ModTime: now.Add(-time.Minute)}
	stale := model.Entry{Path: "/d/b.bin", Name: "b.bin", Size: 4096, ModTime: now.Add(-2 * time.Hour)}
	small := model.Entry{Path: "/d/c.bin", Name: "c.bin", Size: 10, ModTime: now}
	if !rule.Match(fresh) {
		t.Fatal("expected a large recent file to match")
	}
	if rule.Match(stale) {
		t.Fatal("expected an old file to be rejected")
	}
	if rule.Match(small) {
		t.Fatal("expected a small file to be rejected")
	}
}

func TestParseFilters_InvalidMinSize(t *testing.T) {
	if _, err := parseFilters(&options{minSize: "lots"}, config.Default(), time.Now()); err == nil {
		t.Fatal("expected error for invalid --min-size")
	}
}

func TestFilterSpec_EmptyDirs(t *testing.T) {
	mem := fsys.NewMem()
	if err := mem.MkdirAll("/d/empty"); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteFile("/d/full/x.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}

	spec, err := parseFilters(&options{emptyDirs: true}, config.Default(), time.Now())
	if err != nil {
		t.Fatalf("parseFilters returned error: %v", err)
	}
	rule, err := spec.resultRule(mem)
	if err != nil {
		t.Fatalf("resultRule returned error: %v", err)
	}

	if !rule.Match(model.Entry{Path: "/d/empty", Name: "empty", Dir: true}) {
		t.Fatal("expected empty directory to match")
	}
	if rule.Match(model.Entry{Path: "/d/full", Name: "full", Dir: true}) {
		t.Fatal("expected non-empty directory to be rejected")
	}
	if rule.Match(model.Entry{Path: "/d/full/x.txt", Name: "x.txt", Size: 1}) {
		t.Fatal("expected file to be rejected")
	}
}

func TestFilterSpec_PreListing(t *testing.T) {
	if (filterSpec{}).preListingRule() != nil {
		t.Fatal("expected no pre-listing rule without excludes")
	}

	cfg := config.Default()
	cfg.Scan.SkipHidden = true
	spec, err := parseFilters(&options{excludes: []string{"node_modules"}}, cfg, time.Now())
	if err != nil {
		t.Fatalf("parseFilters returned error: %v", err)
	}
	rule := spec.preListingRule()
	if rule.Match(model.Entry{Path: "/p/node_modules", Name: "node_modules", Dir: true}) {
		t.Fatal("expected excluded directory to be pruned")
	}
	if rule.Match(model.Entry{Path: "/p/.git", Name: ".git", Dir: true, Hidden: true}) {
		t.Fatal("expected hidden directory to be pruned")
	}
	if !rule.Match(model.Entry{Path: "/p/src", Name: "src", Dir: true}) {
		t.Fatal("expected ordinary directory to be listed")
	}
}

func TestParseFilters_TrimsCommaSeparatedItems(t *testing.T) {
	o := &options{
		excludes: []string{"skip-one", " skip-two", " "},
		contains: []string{" report"},
		globs:    []string{"*.pdf", " *.txt"},
	}
	spec, err := parseFilters(o, config.Default(), time.Now())
	if err != nil {
		t.Fatalf("parseFilters returned error: %v", err)
	}
	if len(spec.excludes) != 2 || spec.excludes[1] != "skip-two" {
		t.Fatalf("expected trimmed excludes, got %q", spec.excludes)
	}

	pre := spec.preListingRule()
	for _, name := range []string{"skip-one", "skip-two"} {
		if pre.Match(model.Entry{Path: "/p/" + name, Name: name, Dir: true}) {
			t.Fatalf("expected %s to be pruned", name)
		}
	}

	rule, err := spec.resultRule(fsys.NewMem())
	if err != nil {
		t.Fatalf("resultRule returned error: %v", err)
	}
	if !rule.Match(model.Entry{Path: "/p/report.txt", Name: "report.txt"}) {
		t.Fatal("expected report.txt to match the trimmed contains and glob items")
	}
}
