package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// ErrNoHandler is returned by Notify before a notify handler is set.
var ErrNoHandler = errors.New("no notification handler")

// NotificationHandler shows a notification and returns its id.
type NotificationHandler func(notification *DBusNotification) uint32

// CloseHandler is called when CloseNotification is requested.
type CloseHandler func(id uint32)

// NotificationServer implements the org.freedesktop.Notifications D-Bus interface.
type NotificationServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	// Handlers
	notifyHandler NotificationHandler
	closeHandler  CloseHandler

	mu          sync.RWMutex
	activeIDs   map[uint32]bool     // Ids issued and not yet closed
	closedEarly map[uint32]struct{} // Closed before Notify recorded them
	actions     map[uint32]notificationActions
	serverInfo  ServerInfo
	running     bool
}

type notificationActions struct {
	defaultAction bool
	resident      bool
}

// NewNotificationServer creates a new NotificationServer.
func NewNotificationServer(logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger:      logger,
		activeIDs:   make(map[uint32]bool),
		closedEarly: make(map[uint32]struct{}),
		actions:     make(map[uint32]notificationActions),
		serverInfo:  DefaultServerInfo(),
	}
}

// SetNotifyHandler sets the handler called when a notification is received.
func (s *NotificationServer) SetNotifyHandler(handler NotificationHandler) {
	s.notifyHandler = handler
}

// SetCloseHandler sets the handler called when CloseNotification is requested.
func (s *NotificationServer) SetCloseHandler(handler CloseHandler) {
	s.closeHandler = handler
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.serverInfo = info
}

// Start exports the notification service on conn and claims the bus name.
func (s *NotificationServer) Start(conn *dbus.Conn) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	s.conn = conn

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	s.logger.Debug("GetCapabilities called")
	return ServerCapabilities, nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.logger.Debug("GetServerInformation called")
	return s.serverInfo.Name, s.serverInfo.Vendor, s.serverInfo.Version, s.serverInfo.SpecVersion, nil
}

// Notify handles incoming notification requests.
// D-Bus method: Notify(susssasa{sv}i) -> u
//
// A non-zero replaces_id closes the notification it names; the replacement
// is shown with a new id.
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	s.logger.Debug("Notify called",
		"app_name", appName,
		"replaces_id", replacesID,
		"summary", summary,
	)

	notification := &DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}

	if replacesID > 0 && s.IsActive(replacesID) && s.closeHandler != nil {
		s.closeHandler(replacesID)
	}

	id, err := s.NotifyInternal(notification)
	if err != nil {
		return 0, dbus.MakeFailedError(err)
	}
	return id, nil
}

// NotifyInternal shows a notification without going through D-Bus.
// This is used for internal daemon notifications (config reload, errors, etc.).
func (s *NotificationServer) NotifyInternal(notification *DBusNotification) (uint32, error) {
	if s.notifyHandler == nil {
		return 0, ErrNoHandler
	}

	id := s.notifyHandler(notification)

	s.mu.Lock()
	if _, closed := s.closedEarly[id]; closed {
		delete(s.closedEarly, id)
	} else {
		s.activeIDs[id] = true
		s.actions[id] = notificationActions{
			defaultAction: notification.HasAction(ActionDefault),
			resident:      notification.Resident(),
		}
	}
	s.mu.Unlock()

	s.logger.Debug("notification accepted",
		"app_name", notification.AppName,
		"summary", notification.Summary,
		"id", id,
	)
	return id, nil
}

// CloseNotification closes a notification by ID.
// D-Bus method: CloseNotification(u) -> nothing
//
// The NotificationClosed signal is emitted once the close completes.
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "id", id)

	if s.IsActive(id) && s.closeHandler != nil {
		s.closeHandler(id)
	}
	return nil
}

// MarkClosed removes a notification from active tracking.
// It returns false if the id was not active.
func (s *NotificationServer) MarkClosed(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeIDs[id] {
		s.closedEarly[id] = struct{}{}
		return false
	}
	delete(s.activeIDs, id)
	delete(s.actions, id)
	return true
}

// IsActive returns true if the notification ID is currently active.
func (s *NotificationServer) IsActive(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeIDs[id]
}

// ActiveCount returns the number of notifications not yet closed.
func (s *NotificationServer) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activeIDs)
}

// notificationMethods returns the D-Bus method introspection data.
func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

// notificationSignals returns the D-Bus signal introspection data.
func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
