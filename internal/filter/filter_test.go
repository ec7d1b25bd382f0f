package filter

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/fscan/internal/fsys"
	"github.com/sadopc/fscan/internal/model"
)

func file(path string) model.Entry {
	name := path[lastSlash(path)+1:]
	return model.Entry{Path: path, Name: name, Hidden: model.IsHiddenName(name)}
}

func dir(path string) model.Entry {
	e := file(path)
	e.Dir = true
	return e
}

func lastSlash(p string) int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return i
		}
	}
	return -1
}

func TestNilRuleMatchesEverything(t *testing.T) {
	var r *Rule
	assert.True(t, r.Match(file("/x/.hidden")))
	assert.True(t, r.Match(dir("/x/d")))
	assert.Equal(t, KindAny, r.Kind())
}

func TestOnlyFilesWithSuffix(t *testing.T) {
	r := NewBuilder().OnlyFiles().Suffixes("apk").MustBuild()

	assert.True(t, r.Match(file("/root/c/d.apk")))
	assert.True(t, r.Match(file("/root/c/D.APK")))
	assert.False(t, r.Match(file("/root/a.txt")))
	assert.False(t, r.Match(dir("/root/c")))
	assert.False(t, r.Match(dir("/root/x.apk")))
}

func TestOnlyDirsBypassesSuffix(t *testing.T) {
	r := NewBuilder().OnlyDirs().Suffixes(".apk").MustBuild()

	assert.True(t, r.Match(dir("/root/b")))
	assert.True(t, r.Match(dir("/root/c")))
	assert.False(t, r.Match(file("/root/c/d.apk")))
}

func TestDefaultModeAppliesSuffixToDirs(t *testing.T) {
	r := NewBuilder().Suffixes("txt").MustBuild()

	assert.True(t, r.Match(file("/r/a.txt")))
	assert.True(t, r.Match(dir("/r/notes.txt")))
	assert.False(t, r.Match(dir("/r/b")))
}

func TestEmptySuffix(t *testing.T) {
	r := NewBuilder().Suffixes("").MustBuild()
	assert.True(t, r.Match(file("/r/Makefile")))
	assert.False(t, r.Match(file("/r/a.txt")))

	r = NewBuilder().Suffixes("go").MustBuild()
	assert.False(t, r.Match(file("/r/Makefile")))
}

func TestNameContainsAndExcludes(t *testing.T) {
	r := NewBuilder().NameContains("Report", "invoice").NameExcludes("draft").MustBuild()

	assert.True(t, r.Match(file("/r/Q1-REPORT.pdf")))
	assert.True(t, r.Match(file("/r/invoice-7.pdf")))
	assert.False(t, r.Match(file("/r/report-draft.pdf")))
	assert.False(t, r.Match(file("/r/notes.pdf")))
}

func TestNameFiltersTrimItems(t *testing.T) {
	// Comma-separated flags arrive as ["skip-one", " skip-two"].
	r := NewBuilder().NameExcludes("skip-one", " skip-two", "  ").MustBuild()
	assert.False(t, r.Match(dir("/r/skip-one")))
	assert.False(t, r.Match(dir("/r/skip-two")))
	assert.True(t, r.Match(dir("/r/keep")))

	r = NewBuilder().NameContains(" Report ", "").MustBuild()
	assert.True(t, r.Match(file("/r/q1-report.pdf")))
	assert.False(t, r.Match(file("/r/notes.pdf")))
}

func TestNameContainsIsNotGlob(t *testing.T) {
	r := NewBuilder().NameContains("*.txt").MustBuild()
	assert.False(t, r.Match(file("/r/a.txt")))
}

func TestSkipHidden(t *testing.T) {
	r := NewBuilder().SkipHidden().MustBuild()
	assert.False(t, r.Match(file("/r/.env")))
	assert.False(t, r.Match(dir("/r/.git")))
	assert.True(t, r.Match(file("/r/env")))
	assert.True(t, r.SkipsHidden())

	assert.True(t, NewBuilder().MustBuild().Match(file("/r/.env")))
}

func TestCustomPredicatesRunFirst(t *testing.T) {
	var calls atomic.Int32
	spy := func(model.Entry) bool {
		calls.Add(1)
		return true
	}

	r := NewBuilder().OnlyFiles().SkipHidden().Suffixes("apk").Custom(spy).MustBuild()

	// Each of these is rejected by a later check; the predicate still runs.
	assert.False(t, r.Match(dir("/r/d")))
	assert.False(t, r.Match(file("/r/.x.apk")))
	assert.False(t, r.Match(file("/r/a.txt")))
	assert.EqualValues(t, 3, calls.Load())
}

func TestCustomPredicatesFailFast(t *testing.T) {
	var second atomic.Int32
	r := NewBuilder().Custom(
		func(model.Entry) bool { return false },
		func(model.Entry) bool { second.Add(1); return true },
	).MustBuild()

	assert.False(t, r.Match(file("/r/a")))
	assert.Zero(t, second.Load())
}

func TestCategory(t *testing.T) {
	r := NewBuilder().OnlyFiles().Category(model.CatDocument).MustBuild()
	for _, name := range []string{"a.txt", "b.PDF", "c.docx", "d.xlsx"} {
		assert.True(t, r.Match(file("/r/"+name)), name)
	}
	assert.False(t, r.Match(file("/r/e.apk")))

	r = NewBuilder().Category(model.CatLog).MustBuild()
	assert.True(t, r.Match(file("/r/app.log")))
	assert.True(t, r.Match(file("/r/x.temp")))
}

func TestGlob(t *testing.T) {
	r, err := NewBuilder().Glob("*.go", "**/testdata/*").Build()
	require.NoError(t, err)

	assert.True(t, r.Match(file("/src/main.go")))
	assert.True(t, r.Match(file("/src/pkg/testdata/in.json")))
	assert.False(t, r.Match(file("/src/pkg/in.json")))
}

func TestGlobTrimsPatterns(t *testing.T) {
	r, err := NewBuilder().Glob("*.go", " *.md").Build()
	require.NoError(t, err)
	assert.True(t, r.Match(file("/src/README.md")))
	assert.False(t, r.Match(file("/src/a.txt")))

	r, err = NewBuilder().Glob(" ", "").Build()
	require.NoError(t, err)
	assert.True(t, r.Match(file("/src/a.txt")))
}

func TestGlobCompileError(t *testing.T) {
	_, err := NewBuilder().Glob("[unclosed").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid glob")

	assert.Panics(t, func() { NewBuilder().Glob("[unclosed").MustBuild() })
}

func TestBuiltRuleIsIndependentOfBuilder(t *testing.T) {
	b := NewBuilder().Suffixes("txt")
	r := b.MustBuild()
	b.Suffixes("apk").OnlyDirs()

	assert.False(t, r.Match(file("/r/a.apk")))
	assert.True(t, r.Match(file("/r/a.txt")))
	assert.Equal(t, KindAny, r.Kind())
}

func TestConcurrentMatch(t *testing.T) {
	var calls atomic.Int64
	r := NewBuilder().
		Suffixes("apk").
		NameExcludes("skip").
		Custom(func(model.Entry) bool { calls.Add(1); return true }).
		MustBuild()

	const workers, iters = 16, 500
	var wg sync.WaitGroup
	var hits atomic.Int64
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				if r.Match(file("/r/app.apk")) {
					hits.Add(1)
				}
				r.Match(file("/r/skip.apk"))
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, workers*iters, hits.Load())
	assert.EqualValues(t, 2*workers*iters, calls.Load())
}

func TestEmptyDir(t *testing.T) {
	mem := fsys.NewMem()
	require.NoError(t, mem.MkdirAll("/root/b"))
	require.NoError(t, mem.WriteFile("/root/c/d.apk", nil))

	r := NewBuilder().Custom(EmptyDir(mem)).MustBuild()
	assert.True(t, r.Match(dir("/root/b")))
	assert.False(t, r.Match(dir("/root/c")))
	assert.False(t, r.Match(file("/root/c/d.apk")))
	assert.False(t, r.Match(dir("/root/gone")))
}

func TestSizeAndTimePredicates(t *testing.T) {
	now := time.Now()
	small := model.Entry{Name: "s", Size: 0, ModTime: now.Add(-time.Hour)}
	big := model.Entry{Name: "b", Size: 2048, ModTime: now}

	assert.False(t, NonEmptyFile(small))
	assert.True(t, NonEmptyFile(big))
	assert.True(t, NonEmptyFile(model.Entry{Dir: true}))

	assert.True(t, MinSize(1024)(big))
	assert.False(t, MinSize(1024)(small))

	since := ModifiedSince(now.Add(-time.Minute))
	assert.True(t, since(big))
	assert.False(t, since(small))
}
