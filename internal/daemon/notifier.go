package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/dbus"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// internalTimeout is how long internal notifications stay on screen.
const internalTimeout = 5000

// NotifyFunc shows a notification and returns its id.
type NotifyFunc func(notification *dbus.DBusNotification) (uint32, error)

// InternalNotifier shows toasts about toastd's own events, such as config
// reloads. Repeats of the same event are rate limited.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	notify NotifyFunc
	now    func() time.Time

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetNotifyFunc sets the function used to show notifications. Normally
// NotificationServer.NotifyInternal, so that internal toasts are tracked
// like any other.
func (n *InternalNotifier) SetNotifyFunc(fn NotifyFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notify = fn
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification unless one with the same key was
// sent within the minimum interval. It returns the id, or 0 if nothing
// was shown.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) uint32 {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return 0
	}
	if n.notify == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return 0
	}

	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return 0
	}
	n.lastNotifyTime[key] = now
	notify := n.notify
	n.mu.Unlock()

	urgency := byte(dbus.UrgencyNormal)
	icon := "dialog-warning"
	switch level {
	case NotificationLevelInfo:
		urgency = dbus.UrgencyLow
		icon = "dialog-information"
	case NotificationLevelError:
		urgency = dbus.UrgencyCritical
		icon = "dialog-error"
	}

	notification := &dbus.DBusNotification{
		AppName: "toastd",
		AppIcon: icon,
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(urgency),
			"category":      godbus.MakeVariant("device"),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant("toastd"),
		},
		ExpireTimeout: internalTimeout,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)

	id, err := notify(notification)
	if err != nil {
		n.logger.Warn("failed to send internal notification", "key", key, "error", err)
		return 0
	}
	return id
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"toastd configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about a config file that failed to load.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyTemplateReloaded sends a notification about a template being reloaded.
func (n *InternalNotifier) NotifyTemplateReloaded(location string) {
	n.Notify(
		"template-reload",
		"Template Reloaded",
		"Template '"+location+"' will be used for new notifications.",
		NotificationLevelInfo,
	)
}

// NotifyTemplateError sends a notification about a template that failed to load.
func (n *InternalNotifier) NotifyTemplateError(location string, err error) {
	n.Notify(
		"template-error",
		"Template Error",
		"Failed to load template '"+location+"': "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyStartup sends a notification that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"toastd Started",
		"Notification daemon v"+version+" is now running.",
		NotificationLevelInfo,
	)
}
