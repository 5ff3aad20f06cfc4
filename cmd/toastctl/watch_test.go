package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/toastd/internal/dbus"
)

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "4 closed (expired)",
		formatEvent(dbus.Event{Kind: dbus.EventClosed, ID: 4, Reason: dbus.CloseReasonExpired}))
	assert.Equal(t, "9 action default",
		formatEvent(dbus.Event{Kind: dbus.EventAction, ID: 9, Action: "default"}))
}

func TestToWatchEvent(t *testing.T) {
	now := time.Unix(1700000000, 0)

	closed := toWatchEvent(dbus.Event{Kind: dbus.EventClosed, ID: 2, Reason: dbus.CloseReasonClosed}, now)
	assert.Equal(t, watchEvent{Time: now, Kind: dbus.EventClosed, ID: 2, Reason: "closed"}, closed)

	action := toWatchEvent(dbus.Event{Kind: dbus.EventAction, ID: 3, Action: "default"}, now)
	assert.Empty(t, action.Reason)
	assert.Equal(t, "default", action.Action)
}
