package daemon

import (
	"errors"
	"fmt"
	"log/slog"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/layout"
	"github.com/jmylchreest/toastd/internal/loop"
)

// Options configures a Daemon.
type Options struct {
	Config     *config.Config
	ConfigPath string // Empty uses the default location
	Loop       loop.Loop
	Presenter  display.Presenter
	Loader     *layout.Loader
	Logger     *slog.Logger
	Version    string

	WatchConfig bool // Reload the config file and active template on change
	SelfNotify  bool // Show toasts about toastd's own events
}

// Daemon wires the toast manager to D-Bus and to the config file.
type Daemon struct {
	opts   Options
	logger *slog.Logger

	manager  *display.Manager
	server   *dbus.NotificationServer
	control  *dbus.ControlServer
	bridge   *Bridge
	notifier *InternalNotifier
	watcher  *ConfigWatcher
}

// New creates a daemon. Nothing is started until Start.
func New(opts Options) (*Daemon, error) {
	if opts.Loop == nil || opts.Presenter == nil {
		return nil, errors.New("daemon requires a loop and a presenter")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Loader == nil {
		opts.Loader = layout.NewLoader(config.TemplatesDir())
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	d := &Daemon{
		opts:     opts,
		logger:   opts.Logger,
		manager:  display.NewManager(opts.Loop, opts.Presenter, opts.Config, opts.Logger),
		server:   dbus.NewNotificationServer(opts.Logger),
		notifier: NewInternalNotifier(opts.Logger),
	}

	info := dbus.DefaultServerInfo()
	info.Version = opts.Version
	d.server.SetServerInfo(info)

	d.bridge = NewBridge(d.manager, d.server, opts.Logger)
	d.bridge.Attach()

	d.notifier.SetNotifyFunc(d.server.NotifyInternal)
	d.notifier.SetEnabled(opts.SelfNotify)

	d.control = dbus.NewControlServer(&controller{Manager: d.manager, daemon: d}, opts.Logger)
	d.control.SetTemplateValidator(opts.Loader.Validate)

	if opts.WatchConfig {
		w, err := NewConfigWatcher(opts.ConfigPath, opts.Loader, opts.Logger)
		if err != nil {
			return nil, err
		}
		w.SetReloadCallback(d.applyReload)
		w.SetErrorCallback(d.notifier.NotifyConfigError)
		w.SetTemplateCallbacks(d.notifier.NotifyTemplateReloaded, d.notifier.NotifyTemplateError)
		d.watcher = w
	}

	return d, nil
}

// Manager returns the toast manager.
func (d *Daemon) Manager() *display.Manager {
	return d.manager
}

// Server returns the notification server.
func (d *Daemon) Server() *dbus.NotificationServer {
	return d.server
}

// Start measures the display and exports the D-Bus interfaces on conn.
// It must run on the loop. A nil conn skips D-Bus entirely.
func (d *Daemon) Start(conn *godbus.Conn) error {
	if err := d.manager.Start(); err != nil {
		return err
	}

	if conn != nil {
		if err := d.server.Start(conn); err != nil {
			return fmt.Errorf("failed to start notification server: %w", err)
		}
		if err := d.control.Start(conn); err != nil {
			_ = d.server.Stop()
			return fmt.Errorf("failed to start control server: %w", err)
		}
	}

	if d.watcher != nil {
		if err := d.watcher.Start(d.manager.Config()); err != nil {
			d.logger.Warn("config hot-reload disabled", "error", err)
		}
	}

	d.logger.Info("toastd started", "version", d.opts.Version)
	d.notifier.NotifyStartup(d.opts.Version)
	return nil
}

// Stop closes every toast and releases the D-Bus names.
func (d *Daemon) Stop() error {
	var errs []error

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	d.manager.CloseAll()
	if err := d.control.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := d.server.Stop(); err != nil {
		errs = append(errs, err)
	}

	d.logger.Info("toastd stopped")
	return errors.Join(errs...)
}

func (d *Daemon) applyReload(_ *config.Config, changed config.Partial) {
	if err := d.manager.SetConfiguration(changed); err != nil {
		d.logger.Error("failed to apply reloaded config", "error", err)
		d.notifier.NotifyConfigError(err)
		return
	}
	d.notifier.NotifyConfigReloaded()
}

// controller is the manager as seen by the control interface. Template
// changes are also passed on to the config watcher.
type controller struct {
	*display.Manager
	daemon *Daemon
}

func (c *controller) SetContentTemplateLocation(location string) error {
	if err := c.Manager.SetContentTemplateLocation(location); err != nil {
		return err
	}
	c.daemon.templateChanged(location)
	return nil
}

func (c *controller) SetConfiguration(p config.Partial) error {
	if err := c.Manager.SetConfiguration(p); err != nil {
		return err
	}
	if p.Template != nil {
		c.daemon.templateChanged(*p.Template)
	}
	return nil
}

func (d *Daemon) templateChanged(location string) {
	if d.watcher != nil {
		d.watcher.SetTemplateLocation(location)
	}
}
