package scan

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_CompletesAfterAllMembers(t *testing.T) {
	slow := newGateFS(memTree(t, "/slow/x.txt"))
	fast := memTree(t, "/fast/y.txt")

	a := New(slow, p("/slow"), testOptions())
	b := New(fast, p("/fast"), testOptions())
	ca, cb := newCollector(), newCollector()

	allDone := make(chan struct{}, 4)
	g := NewGroup(testOptions())
	require.NoError(t, g.Scan(context.Background(), func() { allDone <- struct{}{} },
		Job{Scanner: a, Listener: ca},
		Job{Scanner: b, Listener: cb},
	))
	assert.True(t, g.Active())

	cb.wait(t)
	select {
	case <-allDone:
		t.Fatal("group completed before the slow member")
	case <-time.After(50 * time.Millisecond):
	}

	close(slow.gate)
	ca.wait(t)

	select {
	case <-allDone:
	case <-time.After(waitTimeout):
		t.Fatal("group never completed")
	}
	require.NoError(t, g.Wait(waitCtx(t)))
	assert.False(t, g.Active())

	select {
	case <-allDone:
		t.Fatal("group completed twice")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, ps("/slow/x.txt"), ca.paths())
	assert.Equal(t, ps("/fast/y.txt"), cb.paths())
}

func TestGroup_ScanWhileActiveIsNoop(t *testing.T) {
	gate := newGateFS(sampleTree(t))
	s := New(gate, p("/root"), testOptions())

	var calls atomic.Int32
	g := NewGroup(testOptions())
	require.NoError(t, g.Scan(context.Background(), func() { calls.Add(1) }, Job{Scanner: s, Listener: newCollector()}))

	other := newCollector()
	err := g.Scan(context.Background(), func() { calls.Add(1) }, Job{Scanner: s, Listener: other})
	assert.ErrorIs(t, err, ErrGroupActive)

	close(gate.gate)
	require.NoError(t, g.Wait(waitCtx(t)))
	assert.EqualValues(t, 1, calls.Load())
	assert.Zero(t, other.matchCount())
}

func TestGroup_RestartsRunningMembers(t *testing.T) {
	gate := newGateFS(sampleTree(t))
	s := New(gate, p("/root"), testOptions())

	stale := newCollector()
	require.NoError(t, s.Start(context.Background(), stale))
	gate.waitEntered(t)

	fresh := newCollector()
	allDone := make(chan struct{}, 1)
	g := NewGroup(testOptions())
	require.NoError(t, g.Scan(context.Background(), func() { allDone <- struct{}{} }, Job{Scanner: s, Listener: fresh}))

	close(gate.gate)
	fresh.wait(t)
	select {
	case <-allDone:
	case <-time.After(waitTimeout):
		t.Fatal("group never completed")
	}

	assert.Len(t, fresh.paths(), 4)
	stale.assertNoMoreCompletions(t)
}

func TestGroup_MissingRootMemberStillCompletes(t *testing.T) {
	ok := New(sampleTree(t), p("/root"), testOptions())
	missing := New(sampleTree(t), p("/absent"), testOptions())
	cm := newCollector()

	allDone := make(chan struct{}, 1)
	g := NewGroup(testOptions())
	require.NoError(t, g.Scan(context.Background(), func() { allDone <- struct{}{} },
		Job{Scanner: ok, Listener: newCollector()},
		Job{Scanner: missing, Listener: cm},
	))

	assert.True(t, cm.wait(t).RootMissing)
	select {
	case <-allDone:
	case <-time.After(waitTimeout):
		t.Fatal("group never completed")
	}
}

func TestGroup_CancelStopsMembers(t *testing.T) {
	gateA := newGateFS(sampleTree(t))
	gateB := newGateFS(sampleTree(t))
	a := New(gateA, p("/root"), testOptions())
	b := New(gateB, p("/root"), testOptions())
	ca, cb := newCollector(), newCollector()

	var calls atomic.Int32
	g := NewGroup(testOptions())
	require.NoError(t, g.Scan(context.Background(), func() { calls.Add(1) },
		Job{Scanner: a, Listener: ca},
		Job{Scanner: b, Listener: cb},
	))
	gateA.waitEntered(t)
	gateB.waitEntered(t)

	g.Cancel()
	require.NoError(t, g.Wait(waitCtx(t)))
	assert.False(t, g.Active())
	assert.False(t, a.Running())
	assert.False(t, b.Running())

	close(gateA.gate)
	close(gateB.gate)
	require.NoError(t, a.Wait(waitCtx(t)))
	require.NoError(t, b.Wait(waitCtx(t)))

	assert.Zero(t, calls.Load())
	assert.Zero(t, ca.matchCount())
	assert.Zero(t, cb.matchCount())
	ca.assertNoMoreCompletions(t)
}

func TestGroup_DispatchesCompletion(t *testing.T) {
	var dispatched atomic.Int32
	opts := testOptions()
	opts.Dispatch = func(fn func()) {
		dispatched.Add(1)
		fn()
	}

	done := make(chan struct{}, 1)
	g := NewGroup(opts)
	s := New(sampleTree(t), p("/root"), testOptions())
	require.NoError(t, g.Scan(context.Background(), func() { done <- struct{}{} }, Job{Scanner: s}))

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("group never completed")
	}
	assert.EqualValues(t, 1, dispatched.Load())
}

func TestGroup_NilContextRunsToCompletion(t *testing.T) {
	s := New(memTree(t, "/n/x.txt"), p("/n"), testOptions())
	c := newCollector()

	allDone := make(chan struct{}, 1)
	g := NewGroup(testOptions())
	require.NoError(t, g.Scan(nil, func() { allDone <- struct{}{} }, Job{Scanner: s, Listener: c}))

	c.wait(t)
	select {
	case <-allDone:
	case <-time.After(waitTimeout):
		t.Fatal("group never completed")
	}
	assert.Equal(t, ps("/n/x.txt"), c.paths())
}
