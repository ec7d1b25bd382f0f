package style

import (
	"testing"

	"github.com/sadopc/fscan/internal/model"
)

func TestContentHeight(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{80, 24, 20},
		{10, 5, 1},
		{10, 4, 1},
		{10, 0, 1},
		{80, 50, 46},
	}

	for _, tt := range tests {
		l := NewLayout(tt.w, tt.h)
		got := l.ContentHeight()
		if got != tt.want {
			t.Errorf("NewLayout(%d,%d).ContentHeight() = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{10, 0},
		{50, 6},
		{80, 20},
		{200, 20},
	}

	for _, tt := range tests {
		l := NewLayout(tt.width, 24)
		got := l.BarWidth()
		if got != tt.want {
			t.Errorf("NewLayout(%d,24).BarWidth() = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestNameWidth(t *testing.T) {
	for _, w := range []int{10, 30, 80, 200} {
		l := NewLayout(w, 24)
		if got := l.NameWidth(); got < minNameWidth {
			t.Errorf("NewLayout(%d,24).NameWidth() = %d, want >= %d", w, got, minNameWidth)
		}
	}

	l := NewLayout(80, 24)
	total := l.NameWidth() + l.BarWidth() + l.RowOverhead()
	if total != l.ContentWidth() {
		t.Errorf("NameWidth(%d) + BarWidth(%d) + overhead(%d) = %d, want ContentWidth %d",
			l.NameWidth(), l.BarWidth(), l.RowOverhead(), total, l.ContentWidth())
	}
}

func TestFullWidth(t *testing.T) {
	got := FullWidth("hi", 5)
	if got != "hi   " {
		t.Errorf("FullWidth(\"hi\", 5) = %q, want %q", got, "hi   ")
	}

	got = FullWidth("hello", 3)
	if got != "hello" {
		t.Errorf("FullWidth(\"hello\", 3) = %q, want %q", got, "hello")
	}
}

func TestCategoryColor_DistinctPerCategory(t *testing.T) {
	theme := DefaultTheme()
	seen := make(map[string]model.FileCategory)
	for _, cat := range append([]model.FileCategory{model.CatOther}, model.Categories...) {
		c := string(theme.CategoryColor(cat))
		if prev, dup := seen[c]; dup {
			t.Fatalf("%s and %s share color %s", model.CategoryName(prev), model.CategoryName(cat), c)
		}
		seen[c] = cat
	}
}

func TestGradientColor_Endpoints(t *testing.T) {
	theme := DefaultTheme()
	if got := theme.GradientColor(-1); got != theme.GradientStart {
		t.Errorf("GradientColor(-1) = %s", got)
	}
	if got := theme.GradientColor(2); got != theme.GradientEnd {
		t.Errorf("GradientColor(2) = %s", got)
	}
}
