package daemon

import (
	"errors"
	"log/slog"

	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/display"
)

// Bridge connects the D-Bus notification server to the toast manager.
type Bridge struct {
	manager *display.Manager
	server  *dbus.NotificationServer
	logger  *slog.Logger
}

// NewBridge creates a bridge. Call Attach to install the handlers.
func NewBridge(manager *display.Manager, server *dbus.NotificationServer, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		manager: manager,
		server:  server,
		logger:  logger,
	}
}

// Attach installs the server handlers and manager callbacks.
func (b *Bridge) Attach() {
	b.server.SetNotifyHandler(b.handleNotify)
	b.server.SetCloseHandler(b.manager.Close)
	b.manager.SetCloseCallback(b.handleClosed)
	b.manager.SetActionCallback(func(id uint32, action string) {
		b.logger.Debug("notification action", "id", id, "action", action)
	})
}

func (b *Bridge) handleNotify(n *dbus.DBusNotification) uint32 {
	return b.manager.Notify(b.payloadFor(n))
}

// payloadFor converts a D-Bus notification into a toast payload.
func (b *Bridge) payloadFor(n *dbus.DBusNotification) display.Payload {
	return display.Payload{
		Title:       n.Summary,
		Text:        n.Body,
		Subtext:     n.AppName,
		Icon:        n.Icon(),
		URL:         n.URL(),
		DisplayTime: n.DisplayTime(),
		OnClick:     b.handleClick,
	}
}

func (b *Bridge) handleClick(ev display.ClickEvent) {
	closeAfter, err := b.server.InvokeAction(ev.ID)
	if err != nil && !errors.Is(err, dbus.ErrNotConnected) {
		b.logger.Warn("failed to emit action", "id", ev.ID, "error", err)
	}
	if closeAfter {
		ev.Close()
	}
}

func (b *Bridge) handleClosed(id uint32, reason display.CloseReason) {
	err := b.server.CloseWithReason(id, dbus.ReasonFromDisplay(reason))
	switch {
	case errors.Is(err, dbus.ErrNotConnected):
		b.logger.Debug("notification closed without D-Bus", "id", id, "reason", reason)
	case err != nil:
		b.logger.Warn("failed to emit close signal", "id", id, "error", err)
	}
}
