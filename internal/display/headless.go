package display

import (
	"log/slog"

	"github.com/jmylchreest/toastd/internal/loop"
)

// HeadlessPresenter is a Presenter without a screen. Windows only log what
// they would do, which is enough to run the daemon where no compositor is
// available.
type HeadlessPresenter struct {
	loop   loop.Loop
	area   WorkArea
	logger *slog.Logger
}

// NewHeadlessPresenter creates a presenter reporting area as its work area.
func NewHeadlessPresenter(l loop.Loop, area WorkArea, logger *slog.Logger) *HeadlessPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeadlessPresenter{loop: l, area: area, logger: logger}
}

// WorkArea implements Presenter.
func (p *HeadlessPresenter) WorkArea() (WorkArea, error) {
	if p.area.Width <= 0 || p.area.Height <= 0 {
		return WorkArea{}, ErrGeometryNotReady
	}
	return p.area, nil
}

// CreateWindow implements Presenter.
func (p *HeadlessPresenter) CreateWindow(opts WindowOptions) (Window, error) {
	p.logger.Debug("window created", "window_id", opts.ID, "width", opts.Width, "height", opts.Height)
	return &headlessWindow{presenter: p, opts: opts}, nil
}

type headlessWindow struct {
	presenter *HeadlessPresenter
	opts      WindowOptions
	x, y      int
	destroyed bool
	onClosed  func()
}

func (w *headlessWindow) ID() string { return w.opts.ID }

func (w *headlessWindow) SetPosition(x, y int) {
	if !w.destroyed {
		w.x, w.y = x, y
	}
}

func (w *headlessWindow) Position() (int, int) { return w.x, w.y }

func (w *headlessWindow) SetSize(width, height int) {
	if !w.destroyed {
		w.opts.Width, w.opts.Height = width, height
	}
}

func (w *headlessWindow) ShowInactive() {
	if w.destroyed {
		return
	}
	w.presenter.logger.Debug("window shown", "window_id", w.opts.ID, "x", w.x, "y", w.y)
}

func (w *headlessWindow) Hide() {}

func (w *headlessWindow) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	w.presenter.logger.Debug("window destroyed", "window_id", w.opts.ID)
	if cb := w.onClosed; cb != nil {
		w.presenter.loop.Post(cb)
	}
}

func (w *headlessWindow) Destroyed() bool { return w.destroyed }

func (w *headlessWindow) OnClosed(cb func()) { w.onClosed = cb }

func (w *headlessWindow) OnContentReady(cb func()) {
	w.presenter.loop.Post(func() {
		if !w.destroyed {
			cb()
		}
	})
}

func (w *headlessWindow) SendPayload(c Content) error {
	if w.destroyed {
		return nil
	}
	w.presenter.logger.Info("toast",
		"notification_id", c.ID,
		"window_id", c.WindowID,
		"title", c.Title,
		"text", c.Text,
		"subtext", c.Subtext,
	)
	return nil
}
