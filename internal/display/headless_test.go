package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/loop"
)

func TestHeadlessPresenter_WorkArea(t *testing.T) {
	l := loop.NewManual(time.Unix(0, 0))

	_, err := NewHeadlessPresenter(l, WorkArea{}, discardLogger()).WorkArea()
	assert.ErrorIs(t, err, ErrGeometryNotReady)

	area, err := NewHeadlessPresenter(l, testArea, discardLogger()).WorkArea()
	require.NoError(t, err)
	assert.Equal(t, testArea, area)
}

func TestHeadlessPresenter_DrivesManager(t *testing.T) {
	l := loop.NewManual(time.Unix(0, 0))
	p := NewHeadlessPresenter(l, testArea, discardLogger())
	m := NewManager(l, p, config.DefaultConfig(), discardLogger())
	require.NoError(t, m.Start())

	var closed []CloseEvent
	for range 3 {
		m.Notify(Payload{
			Title:       "hello",
			DisplayTime: DisplayFor(2 * time.Second),
			OnClose:     func(ev CloseEvent) { closed = append(closed, ev) },
		})
	}
	l.Drain()
	l.Advance(time.Second)

	snap := m.snapshot()
	require.Len(t, snap.Active, 3)
	g := m.slots.Geometry()
	for i, ts := range snap.Active {
		target := m.slots.TargetPositionForIndex(i)
		assert.Equal(t, target.Y, ts.Y, "slot %d", i)
		assert.Equal(t, g.Anchor.X-g.TotalWidth, ts.X)
	}

	l.Advance(2 * time.Second)
	assert.Len(t, closed, 3)
	for _, ev := range closed {
		assert.Equal(t, ReasonTimeout, ev.Reason)
	}
	assert.Empty(t, m.snapshot().Active)
}

func TestHeadlessPresenter_BurstWhileLoopBusy(t *testing.T) {
	l := loop.New(16, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	defer func() {
		cancel()
		<-l.Done()
	}()

	p := NewHeadlessPresenter(l, testArea, discardLogger())
	m := NewManager(l, p, config.DefaultConfig(), discardLogger())
	var startErr error
	require.NoError(t, l.Call(context.Background(), func() { startErr = m.Start() }))
	require.NoError(t, startErr)

	const n = 2000

	// Hold the loop so the burst queues up behind it.
	release := make(chan struct{})
	l.Post(func() { <-release })

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Notify(Payload{Title: "burst", DisplayTime: DisplayFor(0)})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Notify callers blocked")
	}

	require.Eventually(t, func() bool {
		sctx, scancel := context.WithTimeout(context.Background(), time.Second)
		defer scancel()
		snap, err := m.Snapshot(sctx)
		return err == nil && len(snap.Active)+len(snap.Pending) == n &&
			len(snap.Active) == snap.MaxVisible && snap.QueueState == "idle"
	}, 5*time.Second, 20*time.Millisecond)
}
