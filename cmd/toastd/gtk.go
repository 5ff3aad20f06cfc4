package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/daemon"
	"github.com/jmylchreest/toastd/internal/gtkui"
	"github.com/jmylchreest/toastd/internal/layout"
)

// runGTK runs toastd on the GTK main loop with layer-shell windows.
func runGTK(cfg *config.Config, conn *godbus.Conn) error {
	// Non-unique so GApplication does not claim appID, which the control
	// interface owns.
	app := adw.NewApplication(appID, gio.ApplicationNonUnique)

	var (
		d        *daemon.Daemon
		startErr error
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("received signal, shutting down")
		coreglib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		if d != nil {
			logger.Warn("application already running")
			return
		}

		gtkui.ApplyStyle()

		loader := layout.NewLoader(config.TemplatesDir())
		presenter := gtkui.NewPresenter(&app.Application, loader, logger)

		var err error
		d, err = daemon.New(daemonOptions(cfg, gtkui.NewLoop(), presenter, loader))
		if err != nil {
			startErr = err
			app.Quit()
			return
		}
		presenter.SetDispatcher(d.Manager().Dispatch)

		if err := d.Start(conn); err != nil {
			startErr = err
			app.Quit()
			return
		}

		// No window stays open between toasts.
		app.Hold()
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		if d != nil {
			if err := d.Stop(); err != nil {
				logger.Warn("error stopping daemon", "error", err)
			}
		}
	})

	status := app.Run(os.Args[:1])
	if startErr != nil {
		return startErr
	}
	if status != 0 {
		return fmt.Errorf("application exited with status %d", status)
	}
	logger.Info("toastd stopped")
	return nil
}
