package gtkui

import (
	"errors"
	"log/slog"
	"unsafe"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/layout"
)

// ErrNoMonitor is returned when GDK reports no usable monitor.
var ErrNoMonitor = errors.New("no monitor available")

// Presenter creates layer-shell toast windows on the first monitor.
// All methods must be called on the GTK main thread.
type Presenter struct {
	app    *gtk.Application
	loader *layout.Loader
	logger *slog.Logger

	dispatch func(display.Signal)
	monitor  *gdk.Monitor
	area     display.WorkArea
}

// NewPresenter creates a presenter for app. Templates are resolved with loader.
func NewPresenter(app *gtk.Application, loader *layout.Loader, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		app:    app,
		loader: loader,
		logger: logger,
	}
}

// SetDispatcher sets where close and click signals from windows are sent.
// Normally display.Manager.Dispatch.
func (p *Presenter) SetDispatcher(fn func(display.Signal)) {
	p.dispatch = fn
}

// WorkArea implements display.Presenter.
func (p *Presenter) WorkArea() (display.WorkArea, error) {
	mon, err := primaryMonitor()
	if err != nil {
		return display.WorkArea{}, err
	}

	geom := mon.Geometry()
	p.monitor = mon
	p.area = display.WorkArea{
		X:      geom.X(),
		Y:      geom.Y(),
		Width:  geom.Width(),
		Height: geom.Height(),
	}

	p.logger.Debug("monitor geometry",
		"connector", mon.Connector(),
		"width", p.area.Width,
		"height", p.area.Height,
	)
	return p.area, nil
}

// CreateWindow implements display.Presenter.
func (p *Presenter) CreateWindow(opts display.WindowOptions) (display.Window, error) {
	return newWindow(p, opts), nil
}

func (p *Presenter) send(sig display.Signal) {
	if p.dispatch == nil {
		p.logger.Debug("signal dropped, no dispatcher", "kind", sig.Kind, "window_id", sig.WindowID)
		return
	}
	p.dispatch(sig)
}

// primaryMonitor returns the first monitor. GTK4 has no notion of a
// primary monitor.
func primaryMonitor() (*gdk.Monitor, error) {
	disp := gdk.DisplayGetDefault()
	if disp == nil {
		return nil, errors.New("no display available")
	}

	monitors := disp.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil, ErrNoMonitor
	}

	obj := monitors.Item(0)
	if obj == nil {
		return nil, ErrNoMonitor
	}
	if mon, ok := obj.Cast().(*gdk.Monitor); ok {
		return mon, nil
	}

	// Backend subclasses may not be registered; gdk.Monitor only wraps the
	// object pointer, so wrap it directly.
	type monitor struct {
		_ [0]func()
		*coreglib.Object
	}
	return (*gdk.Monitor)(unsafe.Pointer(&monitor{Object: obj})), nil
}
