package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/dbus"
)

var sendOpts struct {
	appName       string
	icon          string
	url           string
	timeout       time.Duration
	urgency       string
	replaces      uint32
	defaultAction bool
	resident      bool
	wait          bool
}

var sendCmd = &cobra.Command{
	Use:   "send SUMMARY [BODY]",
	Short: "Show a notification",
	Long: `Show a notification and print its id.

A negative --timeout leaves the display time to the daemon; 0 keeps the
notification until it is closed. With --wait, toastctl blocks until the
notification closes and prints why.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.appName, "app-name", "a", "toastctl",
		"Application name shown as subtext")
	sendCmd.Flags().StringVarP(&sendOpts.icon, "icon", "i", "",
		"Icon name or path")
	sendCmd.Flags().StringVar(&sendOpts.url, "url", "",
		"URL opened when the notification is clicked")
	sendCmd.Flags().DurationVarP(&sendOpts.timeout, "timeout", "t", -1,
		"Display time (e.g. 3s); negative uses the daemon default")
	sendCmd.Flags().StringVarP(&sendOpts.urgency, "urgency", "u", "normal",
		"Urgency: low, normal or critical")
	sendCmd.Flags().Uint32VarP(&sendOpts.replaces, "replace", "r", 0,
		"Id of a notification to replace")
	sendCmd.Flags().BoolVar(&sendOpts.defaultAction, "default-action", false,
		"Offer a default action, reported when the notification is clicked")
	sendCmd.Flags().BoolVar(&sendOpts.resident, "resident", false,
		"Keep the notification open after it is clicked")
	sendCmd.Flags().BoolVarP(&sendOpts.wait, "wait", "w", false,
		"Wait for the notification to close")
}

func runSend(cmd *cobra.Command, args []string) error {
	n, err := buildNotification(args)
	if err != nil {
		return err
	}

	return withClient(func(c *dbus.Client) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Subscribe before sending so a fast close is not missed.
		var events <-chan dbus.Event
		if sendOpts.wait {
			events, err = dbus.NewMonitor(c.Conn(), logger).Events(ctx)
			if err != nil {
				return err
			}
		}

		id, err := c.Notify(n)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)

		if !sendOpts.wait {
			return nil
		}
		return waitForClose(ctx, cmd, id, events)
	})
}

func waitForClose(ctx context.Context, cmd *cobra.Command, id uint32, events <-chan dbus.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if ev.ID != id {
				continue
			}
			switch ev.Kind {
			case dbus.EventAction:
				fmt.Fprintf(cmd.OutOrStdout(), "action %s\n", ev.Action)
			case dbus.EventClosed:
				fmt.Fprintf(cmd.OutOrStdout(), "closed %s\n", ev.Reason)
				return nil
			}
		}
	}
}

// buildNotification turns the send arguments into a notification.
func buildNotification(args []string) (*dbus.DBusNotification, error) {
	urgency, err := parseUrgency(sendOpts.urgency)
	if err != nil {
		return nil, err
	}

	n := &dbus.DBusNotification{
		AppName:       sendOpts.appName,
		ReplacesID:    sendOpts.replaces,
		AppIcon:       sendOpts.icon,
		Summary:       args[0],
		ExpireTimeout: timeoutMillis(sendOpts.timeout),
		Hints: map[string]godbus.Variant{
			"urgency": godbus.MakeVariant(urgency),
		},
	}
	if len(args) > 1 {
		n.Body = args[1]
	}
	if sendOpts.url != "" {
		n.Hints[dbus.HintURL] = godbus.MakeVariant(sendOpts.url)
	}
	if sendOpts.resident {
		n.Hints["resident"] = godbus.MakeVariant(true)
	}
	if sendOpts.defaultAction {
		n.Actions = []string{dbus.ActionDefault, "Open"}
	}
	return n, nil
}

func parseUrgency(s string) (byte, error) {
	switch s {
	case "low":
		return dbus.UrgencyLow, nil
	case "normal", "":
		return dbus.UrgencyNormal, nil
	case "critical":
		return dbus.UrgencyCritical, nil
	default:
		return 0, fmt.Errorf("unknown urgency %q (want low, normal or critical)", s)
	}
}

// timeoutMillis converts a display time to expire_timeout.
func timeoutMillis(d time.Duration) int32 {
	if d < 0 {
		return -1
	}
	return int32(d.Milliseconds())
}
