package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/dbus"
)

var watchOpts struct {
	json bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print notification close and action signals as they happen",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOpts.json, "json", false,
		"Print one JSON object per event")
}

// watchEvent is the JSON form of a signal.
type watchEvent struct {
	Time   time.Time      `json:"time"`
	Kind   dbus.EventKind `json:"kind"`
	ID     uint32         `json:"id"`
	Reason string         `json:"reason,omitempty"`
	Action string         `json:"action,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withClient(func(c *dbus.Client) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		mon := dbus.NewMonitor(c.Conn(), logger)

		err := mon.Run(ctx, func(ev dbus.Event) {
			if watchOpts.json {
				_ = enc.Encode(toWatchEvent(ev, time.Now()))
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatEvent(ev))
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
}

func toWatchEvent(ev dbus.Event, now time.Time) watchEvent {
	out := watchEvent{Time: now, Kind: ev.Kind, ID: ev.ID, Action: ev.Action}
	if ev.Kind == dbus.EventClosed {
		out.Reason = ev.Reason.String()
	}
	return out
}

func formatEvent(ev dbus.Event) string {
	switch ev.Kind {
	case dbus.EventClosed:
		return fmt.Sprintf("%d closed (%s)", ev.ID, ev.Reason)
	case dbus.EventAction:
		return fmt.Sprintf("%d action %s", ev.ID, ev.Action)
	default:
		return fmt.Sprintf("%d %s", ev.ID, ev.Kind)
	}
}
