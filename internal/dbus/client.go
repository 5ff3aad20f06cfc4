package dbus

import (
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/display"
)

// Client calls a running toastd over the session bus.
type Client struct {
	conn    *dbus.Conn
	notify  dbus.BusObject
	control dbus.BusObject
}

// Dial opens a private session bus connection.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *dbus.Conn) *Client {
	return &Client{
		conn:    conn,
		notify:  conn.Object(DBusBusName, DBusPath),
		control: conn.Object(ControlBusName, ControlPath),
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Conn returns the underlying connection.
func (c *Client) Conn() *dbus.Conn {
	return c.conn
}

// Notify sends a notification and returns its id.
func (c *Client) Notify(n *DBusNotification) (uint32, error) {
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}

	var id uint32
	err := c.notify.Call(DBusInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body,
		actions, hints, n.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify failed: %w", err)
	}
	return id, nil
}

// CloseNotification closes a notification by id.
func (c *Client) CloseNotification(id uint32) error {
	if err := c.notify.Call(DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// ServerInformation returns the running server's identity.
func (c *Client) ServerInformation() (ServerInfo, error) {
	var info ServerInfo
	err := c.notify.Call(DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("failed to get server information: %w", err)
	}
	return info, nil
}

// CloseAll closes every notification.
func (c *Client) CloseAll() error {
	if err := c.control.Call(ControlInterface+".CloseAll", 0).Err; err != nil {
		return fmt.Errorf("close-all failed: %w", err)
	}
	return nil
}

// Status returns the daemon's current stack snapshot.
func (c *Client) Status() (display.Snapshot, error) {
	var raw string
	if err := c.control.Call(ControlInterface+".Status", 0).Store(&raw); err != nil {
		return display.Snapshot{}, fmt.Errorf("status failed: %w", err)
	}

	var snap display.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return display.Snapshot{}, fmt.Errorf("invalid status payload: %w", err)
	}
	return snap, nil
}

// ContentTemplate returns the daemon's content template location.
func (c *Client) ContentTemplate() (string, error) {
	var location string
	if err := c.control.Call(ControlInterface+".GetContentTemplate", 0).Store(&location); err != nil {
		return "", fmt.Errorf("failed to get content template: %w", err)
	}
	return location, nil
}

// SetContentTemplate changes the daemon's content template location.
func (c *Client) SetContentTemplate(location string) error {
	if err := c.control.Call(ControlInterface+".SetContentTemplate", 0, location).Err; err != nil {
		return fmt.Errorf("failed to set content template: %w", err)
	}
	return nil
}

// SetConfiguration sends a partial configuration update. See
// PartialFromVariants for accepted keys.
func (c *Client) SetConfiguration(settings map[string]dbus.Variant) error {
	if err := c.control.Call(ControlInterface+".SetConfiguration", 0, settings).Err; err != nil {
		return fmt.Errorf("failed to set configuration: %w", err)
	}
	return nil
}
