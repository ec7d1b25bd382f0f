package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/fscan/internal/fsys"
	"github.com/sadopc/fscan/internal/model"
	"github.com/sadopc/fscan/internal/scan"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Debounce("k", func() { calls.Add(1) })
	}
	d.Debounce("other", func() { calls.Add(10) })

	require.Eventually(t, func() bool { return calls.Load() == 11 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 11, calls.Load())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Debounce("k", func() { calls.Add(1) })
	d.Stop()
	d.Debounce("k", func() { calls.Add(1) })

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func startWatcher(t *testing.T, root string, onChange func()) {
	t.Helper()
	w, err := New(root, onChange, Options{Debounce: 30 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_NotifiesOnceAfterBurst(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, root, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte{byte(i)}, 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	changes := make(chan struct{}, 16)
	startWatcher(t, root, func() { changes <- struct{}{} })

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitChange(t, changes)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "new.apk"), []byte("x"), 0o644))
	waitChange(t, changes)
}

func TestWatcher_IgnoresScratchFiles(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, root, func() { calls.Add(1) })

	require.NoError(t, os.WriteFile(filepath.Join(root, "download.tmp"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestNew_RejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent"), func() {}, Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func waitChange(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestRescan_RestartsScanner(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))

	s := scan.New(fsys.NewOS(), root, scan.DefaultOptions())

	var (
		mu      sync.Mutex
		matches []string
	)
	completions := make(chan scan.Summary, 4)
	l := scan.Funcs{
		Begin: func() {
			mu.Lock()
			matches = nil
			mu.Unlock()
		},
		Match: func(e model.Entry) {
			mu.Lock()
			matches = append(matches, e.Name)
			mu.Unlock()
		},
		Complete: func(sum scan.Summary) { completions <- sum },
	}

	rescan := Rescan(context.Background(), s, l, nil)
	rescan()
	<-completions

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644))
	rescan()
	<-completions

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, matches)
}

func TestRescan_SkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := scan.New(fsys.NewOS(), t.TempDir(), scan.DefaultOptions())
	Rescan(ctx, s, scan.Funcs{}, nil)()
	assert.False(t, s.Running())
}
