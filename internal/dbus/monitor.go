package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// EventKind identifies a notification signal.
type EventKind string

const (
	EventClosed EventKind = "closed"
	EventAction EventKind = "action"
)

// Event is a NotificationClosed or ActionInvoked signal.
type Event struct {
	Kind   EventKind
	ID     uint32
	Reason CloseReason // EventClosed only
	Action string      // EventAction only
}

// Monitor follows the notification signals emitted by the running server.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewMonitor creates a monitor on conn.
func NewMonitor(conn *dbus.Conn, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{conn: conn, logger: logger}
}

// Events subscribes to the notification signals and returns them on a
// channel that is closed when ctx is cancelled. The match rule is in place
// when Events returns, so a Notify sent afterwards cannot race it.
func (m *Monitor) Events(ctx context.Context) (<-chan Event, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
	}
	if err := m.conn.AddMatchSignal(opts...); err != nil {
		return nil, fmt.Errorf("failed to add match rule: %w", err)
	}

	ch := make(chan *dbus.Signal, 100)
	m.conn.Signal(ch)

	m.logger.Debug("monitoring notification signals")

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer m.conn.RemoveSignal(ch)
		defer func() {
			if err := m.conn.RemoveMatchSignal(opts...); err != nil {
				m.logger.Debug("failed to remove match rule", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				ev, ok := ParseSignal(sig)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Run delivers events to fn until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, fn func(Event)) error {
	events, err := m.Events(ctx)
	if err != nil {
		return err
	}
	for ev := range events {
		fn(ev)
	}
	return nil
}

// ParseSignal converts a D-Bus signal to an Event. Signals from other
// interfaces or with malformed bodies return false.
func ParseSignal(sig *dbus.Signal) (Event, bool) {
	if sig == nil || sig.Path != DBusPath || len(sig.Body) < 2 {
		return Event{}, false
	}

	id, ok := sig.Body[0].(uint32)
	if !ok {
		return Event{}, false
	}

	switch sig.Name {
	case DBusInterface + ".NotificationClosed":
		reason, ok := sig.Body[1].(uint32)
		if !ok {
			return Event{}, false
		}
		return Event{Kind: EventClosed, ID: id, Reason: CloseReason(reason)}, true

	case DBusInterface + ".ActionInvoked":
		action, ok := sig.Body[1].(string)
		if !ok {
			return Event{}, false
		}
		return Event{Kind: EventAction, ID: id, Action: action}, true
	}

	return Event{}, false
}
