package display

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/loop"
)

var testArea = WorkArea{Width: 1920, Height: 1080}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePresenter struct {
	loop        loop.Loop
	area        WorkArea
	areaErr     error
	createErr   error
	manualReady bool // Content ready is triggered by the test
	windows     []*fakeWindow
}

func (p *fakePresenter) WorkArea() (WorkArea, error) {
	return p.area, p.areaErr
}

func (p *fakePresenter) CreateWindow(opts WindowOptions) (Window, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	w := &fakeWindow{presenter: p, opts: opts, width: opts.Width, height: opts.Height}
	p.windows = append(p.windows, w)
	return w, nil
}

type fakeWindow struct {
	presenter *fakePresenter
	opts      WindowOptions

	x, y          int
	width, height int
	moves         int
	shown         bool
	hidden        bool
	destroyed     bool
	content       *Content

	onClosed func()
	onReady  func()
}

func (w *fakeWindow) ID() string { return w.opts.ID }

func (w *fakeWindow) SetPosition(x, y int) {
	if w.destroyed {
		return
	}
	w.x, w.y = x, y
	w.moves++
}

func (w *fakeWindow) Position() (int, int) { return w.x, w.y }

func (w *fakeWindow) SetSize(width, height int) {
	if w.destroyed {
		return
	}
	w.width, w.height = width, height
}

func (w *fakeWindow) ShowInactive() {
	if !w.destroyed {
		w.shown = true
	}
}

func (w *fakeWindow) Hide() {
	if !w.destroyed {
		w.hidden = true
	}
}

func (w *fakeWindow) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	if cb := w.onClosed; cb != nil {
		w.presenter.loop.Post(cb)
	}
}

func (w *fakeWindow) Destroyed() bool { return w.destroyed }

func (w *fakeWindow) OnClosed(cb func()) { w.onClosed = cb }

func (w *fakeWindow) OnContentReady(cb func()) {
	w.onReady = cb
	if w.presenter.manualReady {
		return
	}
	w.presenter.loop.Post(func() {
		if !w.destroyed {
			cb()
		}
	})
}

func (w *fakeWindow) SendPayload(c Content) error {
	w.content = &c
	return nil
}

// closeExternally simulates the compositor closing the window.
func (w *fakeWindow) closeExternally() {
	w.Destroy()
}

type fakeOpener struct {
	opened []string
}

func (o *fakeOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return nil
}

type harness struct {
	t         *testing.T
	loop      *loop.Manual
	presenter *fakePresenter
	manager   *Manager
	opener    *fakeOpener
}

func newHarness(t *testing.T, mutate func(c *config.Config)) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	l := loop.NewManual(time.Unix(1700000000, 0))
	p := &fakePresenter{loop: l, area: testArea}
	m := NewManager(l, p, cfg, discardLogger())
	o := &fakeOpener{}
	m.SetURLOpener(o)
	require.NoError(t, m.Start())

	return &harness{t: t, loop: l, presenter: p, manager: m, opener: o}
}

func (h *harness) notify(title string) uint32 {
	id := h.manager.Notify(Payload{Title: title})
	h.loop.Drain()
	return id
}

func (h *harness) window(id uint32) *fakeWindow {
	h.t.Helper()
	t, ok := h.manager.tracked[id]
	require.True(h.t, ok, "notification %d not tracked", id)
	require.NotNil(h.t, t.window, "notification %d has no window", id)
	return t.window.(*fakeWindow)
}

func (h *harness) activeIDs() []uint32 {
	ids := make([]uint32, 0, len(h.manager.active))
	for _, t := range h.manager.active {
		ids = append(ids, t.id)
	}
	return ids
}

func (h *harness) pendingIDs() []uint32 {
	return h.manager.snapshot().Pending
}

// settle runs long enough for every queued animation to finish.
func (h *harness) settle() {
	h.loop.Advance(time.Second)
}
