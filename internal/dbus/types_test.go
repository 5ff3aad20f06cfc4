package dbus

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/display"
)

func TestCloseReasonString(t *testing.T) {
	tests := []struct {
		reason   CloseReason
		expected string
	}{
		{CloseReasonExpired, "expired"},
		{CloseReasonDismissed, "dismissed"},
		{CloseReasonClosed, "closed"},
		{CloseReasonUndefined, "undefined"},
		{CloseReason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.String())
		})
	}
}

func TestReasonFromDisplay(t *testing.T) {
	assert.Equal(t, CloseReasonExpired, ReasonFromDisplay(display.ReasonTimeout))
	assert.Equal(t, CloseReasonDismissed, ReasonFromDisplay(display.ReasonClose))
	assert.Equal(t, CloseReasonDismissed, ReasonFromDisplay(display.ReasonClick))
	assert.Equal(t, CloseReasonClosed, ReasonFromDisplay(display.ReasonClosedByAPI))
	assert.Equal(t, CloseReasonUndefined, ReasonFromDisplay(display.CloseReason("other")))
}

func TestParsedActions(t *testing.T) {
	tests := []struct {
		name     string
		actions  []string
		expected []Action
	}{
		{
			name:     "empty",
			actions:  nil,
			expected: []Action{},
		},
		{
			name:     "single action",
			actions:  []string{"default", "Open"},
			expected: []Action{{Key: "default", Label: "Open"}},
		},
		{
			name:    "multiple actions",
			actions: []string{"default", "Open", "dismiss", "Dismiss"},
			expected: []Action{
				{Key: "default", Label: "Open"},
				{Key: "dismiss", Label: "Dismiss"},
			},
		},
		{
			name:     "odd number (incomplete pair ignored)",
			actions:  []string{"default", "Open", "orphan"},
			expected: []Action{{Key: "default", Label: "Open"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Actions: tt.actions}
			assert.Equal(t, tt.expected, n.ParsedActions())
		})
	}
}

func TestHasAction(t *testing.T) {
	n := &DBusNotification{Actions: []string{"reply", "Reply", "default", "Open"}}
	assert.True(t, n.HasAction(ActionDefault))
	assert.True(t, n.HasAction("reply"))
	assert.False(t, n.HasAction("Open"))
}

func TestHints(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{
			"urgency":       dbus.MakeVariant(byte(UrgencyCritical)),
			"category":      dbus.MakeVariant("email.arrived"),
			"desktop-entry": dbus.MakeVariant("thunderbird"),
			"image-path":    dbus.MakeVariant("/tmp/avatar.png"),
			"resident":      dbus.MakeVariant(true),
			HintURL:         dbus.MakeVariant("https://example.com/inbox"),
		},
	}

	assert.Equal(t, UrgencyCritical, n.Urgency())
	assert.Equal(t, "email.arrived", n.Category())
	assert.Equal(t, "thunderbird", n.DesktopEntry())
	assert.Equal(t, "/tmp/avatar.png", n.ImagePath())
	assert.True(t, n.Resident())
	assert.Equal(t, "https://example.com/inbox", n.URL())
	assert.Equal(t, "/tmp/avatar.png", n.Icon())

	n.AppIcon = "mail-unread"
	assert.Equal(t, "mail-unread", n.Icon())
}

func TestHints_WrongTypesIgnored(t *testing.T) {
	n := &DBusNotification{
		Hints: map[string]dbus.Variant{
			"urgency":  dbus.MakeVariant("high"),
			"resident": dbus.MakeVariant(int32(1)),
			HintURL:    dbus.MakeVariant(int32(5)),
		},
	}

	assert.Equal(t, UrgencyNormal, n.Urgency())
	assert.False(t, n.Resident())
	assert.Empty(t, n.URL())
}

func TestDisplayTime(t *testing.T) {
	critical := map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(UrgencyCritical))}

	tests := []struct {
		name    string
		timeout int32
		hints   map[string]dbus.Variant
		want    *time.Duration
	}{
		{"server default", -1, nil, nil},
		{"never", 0, nil, display.DisplayFor(0)},
		{"explicit", 2500, nil, display.DisplayFor(2500 * time.Millisecond)},
		{"critical default never expires", -1, critical, display.DisplayFor(0)},
		{"critical explicit", 1000, critical, display.DisplayFor(time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{ExpireTimeout: tt.timeout, Hints: tt.hints}
			got := n.DisplayTime()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}
