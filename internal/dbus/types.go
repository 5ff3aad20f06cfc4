package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/display"
)

// Urgency levels from the notification specification.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// HintURL is the hint carrying the URL opened when a toast is clicked.
const HintURL = "x-toastd-url"

// ActionDefault is the action key invoked by clicking the toast body.
const ActionDefault = "default"

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved by the notifications protocol.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// ReasonFromDisplay maps a manager close reason to its D-Bus value.
func ReasonFromDisplay(r display.CloseReason) CloseReason {
	switch r {
	case display.ReasonTimeout:
		return CloseReasonExpired
	case display.ReasonClose, display.ReasonClick:
		return CloseReasonDismissed
	case display.ReasonClosedByAPI:
		return CloseReasonClosed
	default:
		return CloseReasonUndefined
	}
}

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ParsedActions converts the D-Bus action array to structured form.
// D-Bus actions are passed as alternating key/label pairs.
func (n *DBusNotification) ParsedActions() []Action {
	actions := make([]Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, Action{
			Key:   n.Actions[i],
			Label: n.Actions[i+1],
		})
	}
	return actions
}

// HasAction reports whether the notification offers the given action key.
func (n *DBusNotification) HasAction(key string) bool {
	for _, a := range n.ParsedActions() {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Urgency extracts the urgency hint from the notification.
// Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint from the notification.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// ImagePath extracts the image-path hint.
func (n *DBusNotification) ImagePath() string {
	return n.stringHint("image-path")
}

// URL extracts the click URL hint.
func (n *DBusNotification) URL() string {
	return n.stringHint(HintURL)
}

// Resident returns true if the resident hint is set.
// Resident notifications are not closed after an action is invoked.
func (n *DBusNotification) Resident() bool {
	if v, ok := n.Hints["resident"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Icon returns the icon to show: app_icon, then image-path.
func (n *DBusNotification) Icon() string {
	if n.AppIcon != "" {
		return n.AppIcon
	}
	return n.ImagePath()
}

// DisplayTime maps expire_timeout to a toast display time. The server
// default (-1) returns nil, except for critical notifications which stay
// until closed.
func (n *DBusNotification) DisplayTime() *time.Duration {
	switch {
	case n.ExpireTimeout > 0:
		return display.DisplayFor(time.Duration(n.ExpireTimeout) * time.Millisecond)
	case n.ExpireTimeout == 0:
		return display.DisplayFor(0)
	case n.Urgency() == UrgencyCritical:
		return display.DisplayFor(0)
	default:
		return nil
	}
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// ServerCapabilities lists the capabilities advertised by toastd.
var ServerCapabilities = []string{
	"actions",     // Default action on click
	"body",        // Support body text
	"icon-static", // Support static icons
	HintURL,       // Click to open URL
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "toastd"
	Vendor      string // "toastd"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "toastd",
		Vendor:      "toastd",
		Version:     "0.0.1", // Will be replaced by build-time version
		SpecVersion: "1.2",
	}
}
