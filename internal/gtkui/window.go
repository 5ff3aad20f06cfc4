package gtkui

import (
	"errors"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/layout"
)

// errDestroyed is returned when content is sent to a destroyed window.
var errDestroyed = errors.New("window destroyed")

// window is a single toast surface. Its layout is loaded off the main
// thread; content is ready once it has arrived.
type window struct {
	presenter *Presenter
	opts      display.WindowOptions
	gw        *gtk.Window

	layout    *layout.Layout
	x, y      int
	destroyed bool
	ready     bool
	clicked   bool // Set by content buttons so the window gesture ignores the press

	onClosed func()
	onReady  func()
}

func newWindow(p *Presenter, opts display.WindowOptions) *window {
	w := &window{presenter: p, opts: opts}

	w.gw = gtk.NewWindow()
	w.gw.SetApplication(p.app)
	w.gw.SetDecorated(false)
	w.gw.SetResizable(false)
	w.gw.SetSizeRequest(opts.Width, opts.Height)
	w.gw.SetDefaultSize(opts.Width, opts.Height)
	w.gw.AddCSSClass("toast-window")

	layershell.InitForWindow(w.gw)
	layershell.SetLayer(w.gw, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(w.gw, 0)
	layershell.SetKeyboardMode(w.gw, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(w.gw, "toastd")
	if p.monitor != nil {
		layershell.SetMonitor(w.gw, p.monitor)
	}
	layershell.SetAnchor(w.gw, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(w.gw, layershell.LayerShellEdgeLeft, true)

	w.gw.ConnectCloseRequest(func() bool {
		w.Destroy()
		return true
	})

	click := gtk.NewGestureClick()
	click.SetButton(1)
	click.ConnectReleased(func(nPress int, x, y float64) {
		if w.clicked {
			w.clicked = false
			return
		}
		w.presenter.send(display.Signal{Kind: display.SignalClick, WindowID: w.opts.ID})
	})
	w.gw.AddController(click)

	go w.loadLayout()
	return w
}

// loadLayout runs on its own goroutine and hands the result to the main thread.
func (w *window) loadLayout() {
	l, err := w.presenter.loader.Load(w.opts.Template)
	if err != nil {
		w.presenter.logger.Warn("failed to load template, using default",
			"template", w.opts.Template,
			"window_id", w.opts.ID,
			"error", err,
		)
		l = layout.DefaultLayout()
	}

	coreglib.IdleAdd(func() {
		w.layout = l
		w.ready = true
		if cb := w.onReady; cb != nil && !w.destroyed {
			cb()
		}
	})
}

func (w *window) ID() string { return w.opts.ID }

func (w *window) SetPosition(x, y int) {
	if w.destroyed {
		return
	}
	w.x, w.y = x, y
	area := w.presenter.area
	layershell.SetMargin(w.gw, layershell.LayerShellEdgeLeft, x-area.X)
	layershell.SetMargin(w.gw, layershell.LayerShellEdgeTop, y-area.Y)
}

func (w *window) Position() (int, int) { return w.x, w.y }

func (w *window) SetSize(width, height int) {
	if w.destroyed {
		return
	}
	w.gw.SetSizeRequest(width, height)
	w.gw.SetDefaultSize(width, height)
}

func (w *window) ShowInactive() {
	if w.destroyed {
		return
	}
	// Keyboard mode none keeps focus where it was.
	w.gw.SetVisible(true)
}

func (w *window) Hide() {
	if w.destroyed {
		return
	}
	w.gw.SetVisible(false)
}

func (w *window) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	w.gw.Destroy()

	if cb := w.onClosed; cb != nil {
		coreglib.IdleAdd(cb)
	}
}

func (w *window) Destroyed() bool { return w.destroyed }

func (w *window) OnClosed(cb func()) { w.onClosed = cb }

func (w *window) OnContentReady(cb func()) {
	w.onReady = cb
	if w.ready {
		coreglib.IdleAdd(func() {
			if !w.destroyed {
				cb()
			}
		})
	}
}

func (w *window) SendPayload(c display.Content) error {
	if w.destroyed {
		return errDestroyed
	}

	l := w.layout
	if l == nil {
		// Revealed by the watchdog before the template arrived.
		l = layout.DefaultLayout()
	}

	b := &contentBuilder{
		content: c,
		onClose: func() {
			w.markClicked()
			w.presenter.send(display.Signal{Kind: display.SignalClose, WindowID: w.opts.ID, Content: c})
		},
		onLink: func() {
			w.markClicked()
			w.presenter.send(display.Signal{Kind: display.SignalClick, WindowID: w.opts.ID, Content: c})
		},
	}
	w.gw.SetChild(b.build(l))
	return nil
}

// markClicked suppresses the window gesture for the press a content button
// already handled.
func (w *window) markClicked() {
	w.clicked = true
	coreglib.IdleAdd(func() { w.clicked = false })
}
