package daemon

import (
	"io"
	"log/slog"
	"time"

	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/loop"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePresenter struct {
	loop    loop.Loop
	windows []*fakeWindow
}

func (p *fakePresenter) WorkArea() (display.WorkArea, error) {
	return display.WorkArea{Width: 1920, Height: 1080}, nil
}

func (p *fakePresenter) CreateWindow(opts display.WindowOptions) (display.Window, error) {
	w := &fakeWindow{presenter: p, opts: opts}
	p.windows = append(p.windows, w)
	return w, nil
}

type fakeWindow struct {
	presenter *fakePresenter
	opts      display.WindowOptions
	x, y      int
	shown     bool
	destroyed bool
	content   display.Content
	onClosed  func()
}

func (w *fakeWindow) ID() string { return w.opts.ID }
func (w *fakeWindow) SetPosition(x, y int) { w.x, w.y = x, y }
func (w *fakeWindow) Position() (int, int) { return w.x, w.y }
func (w *fakeWindow) SetSize(int, int) {}
func (w *fakeWindow) ShowInactive() { w.shown = true }
func (w *fakeWindow) Hide() {}
func (w *fakeWindow) Destroyed() bool { return w.destroyed }
func (w *fakeWindow) OnClosed(cb func()) { w.onClosed = cb }
func (w *fakeWindow) SendPayload(c display.Content) error {
	w.content = c
	return nil
}

func (w *fakeWindow) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	if w.onClosed != nil {
		w.presenter.loop.Post(w.onClosed)
	}
}

func (w *fakeWindow) OnContentReady(cb func()) {
	w.presenter.loop.Post(func() {
		if !w.destroyed {
			cb()
		}
	})
}

// settle runs every queued task and timer that is due within a second.
func settle(l *loop.Manual) {
	l.Drain()
	l.Advance(time.Second)
}
