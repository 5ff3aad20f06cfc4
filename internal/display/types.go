package display

import (
	"time"
)

// CloseReason describes why a notification was closed.
type CloseReason string

const (
	// ReasonTimeout means the dismiss timer elapsed.
	ReasonTimeout CloseReason = "timeout"
	// ReasonClosedByAPI means a caller closed the notification programmatically.
	ReasonClosedByAPI CloseReason = "closedByAPI"
	// ReasonClose means the user closed the notification from its content.
	ReasonClose CloseReason = "close"
	// ReasonClick means the notification was closed from a click handler.
	ReasonClick CloseReason = "click"
)

// String implements fmt.Stringer.
func (r CloseReason) String() string {
	return string(r)
}

// State is the lifecycle state of a notification.
type State int

const (
	// StateQueued means a show task has been submitted but has not run.
	StateQueued State = iota
	// StatePending means the notification is waiting for a free slot.
	StatePending
	// StateActive means the notification occupies a slot.
	StateActive
	// StateClosed means the notification has been closed and dropped.
	StateClosed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseEvent is passed to a payload's OnClose callback.
type CloseEvent struct {
	ID     uint32
	Reason CloseReason
}

// ClickEvent is passed to a payload's OnClick callback.
// Close closes the clicked notification with ReasonClick; it is safe to call
// from any goroutine and more than once.
type ClickEvent struct {
	ID    uint32
	Close func()
}

// Payload is what a caller asks to be shown.
type Payload struct {
	Title   string
	Text    string
	Subtext string
	Icon    string
	URL     string // Opened externally when the toast is clicked

	// DisplayTime overrides the configured auto-dismiss delay.
	// nil uses the default, zero disables auto-dismiss.
	DisplayTime *time.Duration

	OnShow  func(id uint32)
	OnClick func(ev ClickEvent)
	OnClose func(ev CloseEvent)
}

// DisplayFor returns a pointer suitable for Payload.DisplayTime.
func DisplayFor(d time.Duration) *time.Duration {
	return &d
}

// Content is the data delivered to a presentation window.
type Content struct {
	WindowID string `json:"window_id"`
	ID       uint32 `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text,omitempty"`
	Subtext  string `json:"subtext,omitempty"`
	Icon     string `json:"icon,omitempty"`
	URL      string `json:"url,omitempty"`
	Template string `json:"template,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// SignalKind identifies a message sent from presented content.
type SignalKind string

const (
	// SignalClose is sent when the user closes a toast from its content.
	SignalClose SignalKind = "close"
	// SignalClick is sent when the user clicks a toast.
	SignalClick SignalKind = "click"
)

// Signal is a message from the presentation layer back to the manager.
type Signal struct {
	Kind     SignalKind
	WindowID string
	Content  Content
}
