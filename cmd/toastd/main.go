// Package main is the entry point for the toastd notification daemon.
package main

import (
	"fmt"
	"log/slog"
	"os"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/daemon"
	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/layout"
	"github.com/jmylchreest/toastd/internal/loop"
)

const appID = "io.github.jmylchreest.toastd"

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	globalOpts struct {
		verbose      bool
		configPath   string
		noWatch      bool
		noSelfNotify bool
		headless     bool
		areaWidth    int
		areaHeight   int
	}
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "toastd",
	Short: "Stacking toast notification daemon",
	Long: `toastd is a desktop notification daemon that shows notifications as
stacked toasts in the lower-right corner of the screen.

It implements org.freedesktop.Notifications on the session bus and exposes
a control interface used by toastctl.

With --headless no windows are created and toasts are written to the log,
which is useful on machines without a Wayland compositor.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.Flags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/toastd/toastd.toml)")
	rootCmd.Flags().BoolVar(&globalOpts.noWatch, "no-watch", false,
		"Do not reload the config file and template when they change")
	rootCmd.Flags().BoolVar(&globalOpts.noSelfNotify, "no-self-notify", false,
		"Do not show toasts about toastd's own events")
	rootCmd.Flags().BoolVar(&globalOpts.headless, "headless", false,
		"Run without a display, logging toasts instead of showing them")
	rootCmd.Flags().IntVar(&globalOpts.areaWidth, "headless-width", 1920,
		"Work area width used with --headless")
	rootCmd.Flags().IntVar(&globalOpts.areaHeight, "headless-height", 1080,
		"Work area height used with --headless")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	setupLogger()
	logger.Info("starting toastd", "version", version)

	cfg, err := config.Load(globalOpts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if globalOpts.headless {
		return runHeadless(cfg, conn)
	}
	return runGTK(cfg, conn)
}

// daemonOptions returns the options shared by both front ends.
func daemonOptions(cfg *config.Config, l loop.Loop, presenter display.Presenter, loader *layout.Loader) daemon.Options {
	return daemon.Options{
		Config:      cfg,
		ConfigPath:  globalOpts.configPath,
		Loop:        l,
		Presenter:   presenter,
		Loader:      loader,
		Logger:      logger,
		Version:     version,
		WatchConfig: !globalOpts.noWatch,
		SelfNotify:  !globalOpts.noSelfNotify,
	}
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelInfo
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
