package gtkui

import (
	"time"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/jmylchreest/toastd/internal/loop"
)

// Loop runs work on the GLib main context. Post and AfterFunc may be
// called from any goroutine.
type Loop struct{}

// NewLoop returns a loop backed by the default GLib main context.
func NewLoop() *Loop {
	return &Loop{}
}

// Post implements loop.Loop. coreglib.IdleAdd only queues fn, so it never blocks.
func (Loop) Post(fn func()) {
	coreglib.IdleAdd(fn)
}

// AfterFunc implements loop.Loop.
func (Loop) AfterFunc(d time.Duration, fn func()) loop.Timer {
	t := &glibTimer{}
	ms := max(d.Milliseconds(), 0)
	t.handle = coreglib.TimeoutAdd(uint(ms), func() {
		if t.done {
			return
		}
		t.done = true
		fn()
	})
	return t
}

// Now implements loop.Loop.
func (Loop) Now() time.Time {
	return time.Now()
}

// glibTimer is only touched on the main context.
type glibTimer struct {
	handle coreglib.SourceHandle
	done   bool
}

func (t *glibTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	coreglib.SourceRemove(t.handle)
	return true
}
