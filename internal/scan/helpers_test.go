package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sadopc/fscan/internal/fsys"
	"github.com/sadopc/fscan/internal/model"
)

const waitTimeout = 5 * time.Second

// collector is a Listener that records everything it sees.
type collector struct {
	mu          sync.Mutex
	begins      int
	matches     []model.Entry
	errPaths    []string
	completions []Summary
	done        chan Summary
}

func newCollector() *collector {
	return &collector{done: make(chan Summary, 16)}
}

func (c *collector) OnBegin() {
	c.mu.Lock()
	c.begins++
	c.mu.Unlock()
}

func (c *collector) OnMatch(e model.Entry) {
	c.mu.Lock()
	c.matches = append(c.matches, e)
	c.mu.Unlock()
}

func (c *collector) OnComplete(s Summary) {
	c.mu.Lock()
	c.completions = append(c.completions, s)
	c.mu.Unlock()
	c.done <- s
}

func (c *collector) OnError(path string, err error) {
	c.mu.Lock()
	c.errPaths = append(c.errPaths, path)
	c.mu.Unlock()
}

func (c *collector) paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.matches))
	for _, e := range c.matches {
		out = append(out, e.Path)
	}
	sort.Strings(out)
	return out
}

func (c *collector) matchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.matches)
}

func (c *collector) wait(t *testing.T) Summary {
	t.Helper()
	select {
	case s := <-c.done:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for completion")
		return Summary{}
	}
}

func (c *collector) assertNoMoreCompletions(t *testing.T) {
	t.Helper()
	select {
	case s := <-c.done:
		t.Fatalf("unexpected extra completion: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

// p converts a slash path to the filesystem's form.
func p(slash string) string {
	return filepath.FromSlash(slash)
}

func ps(slashes ...string) []string {
	out := make([]string, len(slashes))
	for i, s := range slashes {
		out[i] = p(s)
	}
	sort.Strings(out)
	return out
}

// memTree builds an in-memory tree. Entries ending in "/" are directories.
func memTree(t *testing.T, entries ...string) *fsys.Afero {
	t.Helper()
	m := fsys.NewMem()
	for _, e := range entries {
		if strings.HasSuffix(e, "/") {
			require.NoError(t, m.MkdirAll(p(strings.TrimSuffix(e, "/"))))
			continue
		}
		require.NoError(t, m.WriteFile(p(e), []byte(e)))
	}
	return m
}

// sampleTree is /root/{a.txt, b/ (empty), c/d.apk}.
func sampleTree(t *testing.T) *fsys.Afero {
	return memTree(t, "/root/a.txt", "/root/b/", "/root/c/d.apk")
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Concurrency = 4
	return opts
}

// gateFS blocks every ReadDir until gate is closed.
type gateFS struct {
	fsys.FS
	gate    chan struct{}
	entered chan string
}

func newGateFS(inner fsys.FS) *gateFS {
	return &gateFS{FS: inner, gate: make(chan struct{}), entered: make(chan string, 1024)}
}

func (g *gateFS) ReadDir(name string) ([]fs.FileInfo, error) {
	g.entered <- name
	<-g.gate
	return g.FS.ReadDir(name)
}

func (g *gateFS) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a directory listing")
	}
}

// failFS fails ReadDir for the listed paths with the given error.
type failFS struct {
	fsys.FS
	fail map[string]error
}

func (f *failFS) ReadDir(name string) ([]fs.FileInfo, error) {
	if err, ok := f.fail[name]; ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	return f.FS.ReadDir(name)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)
	return ctx
}
