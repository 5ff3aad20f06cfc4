package dbus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// ErrNotConnected is returned when emitting before Start.
var ErrNotConnected = errors.New("not connected to D-Bus")

// EmitNotificationClosed emits the NotificationClosed signal.
// This signal is emitted when a notification is closed, either by timeout,
// user dismissal, or explicit close request.
func (s *NotificationServer) EmitNotificationClosed(id uint32, reason CloseReason) error {
	if s.conn == nil {
		return ErrNotConnected
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason))
	if err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	s.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// EmitActionInvoked emits the ActionInvoked signal.
// This signal is emitted when the user invokes an action on a notification.
func (s *NotificationServer) EmitActionInvoked(id uint32, actionKey string) error {
	if s.conn == nil {
		return ErrNotConnected
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".ActionInvoked", id, actionKey)
	if err != nil {
		return fmt.Errorf("failed to emit ActionInvoked signal: %w", err)
	}

	s.logger.Debug("emitted ActionInvoked signal", "id", id, "action_key", actionKey)
	return nil
}

// CloseWithReason marks a notification closed and emits the signal.
func (s *NotificationServer) CloseWithReason(id uint32, reason CloseReason) error {
	s.MarkClosed(id)
	return s.EmitNotificationClosed(id, reason)
}

// InvokeAction emits ActionInvoked for the default action if the
// notification offered one. It reports whether the notification should be
// closed afterwards, which is the case unless it is resident.
func (s *NotificationServer) InvokeAction(id uint32) (closeAfter bool, err error) {
	s.mu.RLock()
	acts, ok := s.actions[id]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if acts.defaultAction {
		err = s.EmitActionInvoked(id, ActionDefault)
	}
	return !acts.resident, err
}

// Connection returns the underlying D-Bus connection.
func (s *NotificationServer) Connection() *dbus.Conn {
	return s.conn
}
