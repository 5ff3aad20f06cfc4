// Package dbus implements the org.freedesktop.Notifications D-Bus interface
// and the toastd control interface.
//
// The notification server receives Notify and CloseNotification calls from
// applications and emits NotificationClosed and ActionInvoked. The control
// server exposes CloseAll, Status and configuration methods used by toastctl.
// Client wraps both for callers on the session bus.
package dbus
