package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/sadopc/fscan/internal/model"
	"github.com/sadopc/fscan/internal/scan"
	"github.com/sadopc/fscan/internal/ui/style"
)

var smallWidths = []int{0, 1, 2, 5}

func TestRenderHelp_SmallWidth(t *testing.T) {
	theme := style.DefaultTheme()
	for _, w := range smallWidths {
		t.Run("", func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("RenderHelp panicked at width=%d: %v", w, r)
				}
			}()
			RenderHelp(theme, w, 10)
		})
	}
}

func TestRenderConfirmDialog_SmallWidth(t *testing.T) {
	theme := style.DefaultTheme()
	items := []ConfirmItem{{Path: "/tmp/test.txt", Size: 100}}
	for _, w := range smallWidths {
		t.Run("", func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("RenderConfirmDialog panicked at width=%d: %v", w, r)
				}
			}()
			RenderConfirmDialog(theme, items, w, 10)
		})
	}
}

func TestRenderConfirmDialog_LimitsRows(t *testing.T) {
	theme := style.DefaultTheme()
	items := make([]ConfirmItem, 15)
	for i := range items {
		items[i] = ConfirmItem{Path: "/tmp/f.log", Size: 1}
	}
	out := RenderConfirmDialog(theme, items, 80, 40)
	if !strings.Contains(out, "and 5 more") {
		t.Fatalf("dialog does not summarize overflow rows:\n%s", out)
	}
}

func TestRenderScanProgress_SmallWidth(t *testing.T) {
	theme := style.DefaultTheme()
	p := scan.Progress{Errors: 2}
	for _, w := range smallWidths {
		t.Run("", func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("RenderScanProgress panicked at width=%d: %v", w, r)
				}
			}()
			RenderScanProgress(theme, p, w, 10)
		})
	}
}

func TestRenderCategories_SmallWidth(t *testing.T) {
	theme := style.DefaultTheme()
	stats := AggregateCategories([]model.Entry{{Name: "a.jpg", Size: 10}})
	for _, w := range smallWidths {
		t.Run("", func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("RenderCategories panicked at width=%d: %v", w, r)
				}
			}()
			RenderCategories(theme, stats, w, 10)
		})
	}
}

func TestRenderHeaderAndStatusBar_SmallWidth(t *testing.T) {
	theme := style.DefaultTheme()
	for _, w := range smallWidths {
		t.Run("", func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("chrome panicked at width=%d: %v", w, r)
				}
			}()
			RenderHeader(theme, []string{"/data"}, 3, 1024, w)
			RenderStatusBar(theme, StatusInfo{Scanning: true}, w)
			RenderTabBar(theme, 0, model.DefaultSort(), w)
		})
	}
}

func TestAggregateCategories(t *testing.T) {
	entries := []model.Entry{
		{Name: "a.jpg", Size: 100},
		{Name: "b.png", Size: 50},
		{Name: "main.go", Size: 400},
		{Name: "README", Size: 5},
		{Name: "photos", Dir: true, Size: 4096},
	}

	stats := AggregateCategories(entries)
	if len(stats) != 3 {
		t.Fatalf("got %d categories, want 3", len(stats))
	}
	if stats[0].Category != model.CatCode || stats[0].TotalSize != 400 {
		t.Errorf("largest category = %v (%d), want Code (400)", stats[0].Category, stats[0].TotalSize)
	}
	if stats[1].Category != model.CatImage || stats[1].FileCount != 2 || stats[1].TotalSize != 150 {
		t.Errorf("images = %+v", stats[1])
	}
	if stats[1].Suffixes["jpg"] != 100 || stats[1].Suffixes["png"] != 50 {
		t.Errorf("image suffixes = %v", stats[1].Suffixes)
	}
	if stats[2].Category != model.CatOther || len(stats[2].Suffixes) != 0 {
		t.Errorf("other = %+v", stats[2])
	}
}

func TestMatchList_RenderHeight(t *testing.T) {
	ml := &MatchList{
		Theme:  style.DefaultTheme(),
		Layout: style.NewLayout(80, 10),
		Roots:  []string{"/data"},
	}
	for i := 0; i < 20; i++ {
		ml.Items = append(ml.Items, model.Entry{Path: "/data/f.txt", Name: "f.txt", Size: int64(i), ModTime: time.Now()})
	}

	lines := strings.Split(ml.Render(), "\n")
	if len(lines) != ml.Layout.ContentHeight() {
		t.Fatalf("rendered %d lines, want %d", len(lines), ml.Layout.ContentHeight())
	}

	ml.Items = nil
	out := ml.Render()
	if !strings.Contains(out, "no matches") {
		t.Fatalf("empty list output = %q", out)
	}
}

func TestMatchList_EnsureVisible(t *testing.T) {
	ml := &MatchList{Layout: style.NewLayout(80, 10)}
	h := ml.Layout.ContentHeight()

	ml.Cursor = h + 3
	ml.EnsureVisible()
	if ml.Offset != 4 {
		t.Fatalf("offset = %d, want 4", ml.Offset)
	}

	ml.Cursor = 1
	ml.EnsureVisible()
	if ml.Offset != 1 {
		t.Fatalf("offset = %d, want 1", ml.Offset)
	}
}

func TestMatchList_Relative(t *testing.T) {
	ml := &MatchList{Roots: []string{"/data", "/srv/"}}
	tests := []struct {
		in, want string
	}{
		{"/data/a/b.txt", "a/b.txt"},
		{"/database/x", "/database/x"},
		{"/srv/www/index.html", "www/index.html"},
		{"/data", "/data"},
		{"/other/file", "/other/file"},
	}
	for _, tt := range tests {
		if got := ml.relative(tt.in); got != tt.want {
			t.Errorf("relative(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchList_LongPathKeepsName(t *testing.T) {
	ml := &MatchList{Theme: style.DefaultTheme()}
	e := model.Entry{Path: "/very/long/nested/directory/structure/report.pdf", Name: "report.pdf"}

	out := ansi.Strip(ml.styledPath(e, 20))
	if ansi.StringWidth(out) > 20 {
		t.Fatalf("path width %d exceeds 20: %q", ansi.StringWidth(out), out)
	}
	if !strings.HasSuffix(out, "report.pdf") {
		t.Fatalf("truncated path lost the name: %q", out)
	}
}
