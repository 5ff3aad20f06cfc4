// Package daemon provides the main orchestration for toastd.
// It bridges the D-Bus notification server to the toast manager and
// handles configuration and template hot-reload and the daemon's own
// status notifications.
package daemon
