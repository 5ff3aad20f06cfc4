package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/daemon"
	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/layout"
	"github.com/jmylchreest/toastd/internal/loop"
)

// runHeadless runs toastd on a goroutine loop with no windows.
func runHeadless(cfg *config.Config, conn *godbus.Conn) error {
	l := loop.New(256, logger)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	go func() { _ = l.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-l.Done()
	}()

	area := display.WorkArea{Width: globalOpts.areaWidth, Height: globalOpts.areaHeight}
	presenter := display.NewHeadlessPresenter(l, area, logger)
	loader := layout.NewLoader(config.TemplatesDir())

	d, err := daemon.New(daemonOptions(cfg, l, presenter, loader))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var startErr error
	if err := l.Call(ctx, func() { startErr = d.Start(conn) }); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	if startErr != nil {
		return startErr
	}

	<-ctx.Done()
	logger.Info("received signal, shutting down")

	if err := d.Stop(); err != nil {
		logger.Warn("error stopping daemon", "error", err)
	}
	// Let the close-all posted by Stop run before the loop exits.
	_ = l.Call(context.Background(), func() {})
	return nil
}
