// Package loop provides the single control thread that all display state is
// confined to. Work is posted as closures; timers deliver their callbacks
// back onto the same thread, so callers never need locks around loop state.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNotRunning is returned when work is posted to a loop that has stopped.
var ErrNotRunning = errors.New("loop is not running")

// Loop runs closures one at a time on a single logical thread.
type Loop interface {
	// Post schedules fn to run on the loop. Implementations must never
	// block, in particular when Post is called from a closure already
	// running on the loop.
	Post(fn func())
	// AfterFunc schedules fn to run on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
	// Now returns the loop's notion of the current time.
	Now() time.Time
}

// Timer is a cancellable AfterFunc registration.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// EventLoop is a goroutine-backed Loop. Posted work is queued without
// bound, so Post never blocks, including when called from the loop itself.
type EventLoop struct {
	logger *slog.Logger
	wake   chan struct{} // Buffered 1; signals that queue is non-empty

	mu      sync.Mutex
	queue   []func()
	running bool
	stopped bool
	doneCh  chan struct{}
}

// New creates an EventLoop. queueSize is the initial queue capacity.
func New(queueSize int, logger *slog.Logger) *EventLoop {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &EventLoop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		queue:  make([]func(), 0, queueSize),
		doneCh: make(chan struct{}),
	}
}

// Run processes posted work until ctx is cancelled. It blocks.
func (l *EventLoop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return errors.New("loop already started")
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.doneCh)
	}()

	l.logger.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped")
			return nil
		case <-l.wake:
		}

		for {
			if ctx.Err() != nil {
				l.logger.Debug("event loop stopped")
				return nil
			}
			fn, ok := l.next()
			if !ok {
				break
			}
			l.invoke(fn)
		}
	}
}

// next pops the oldest queued closure.
func (l *EventLoop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// Done is closed once Run has returned.
func (l *EventLoop) Done() <-chan struct{} {
	return l.doneCh
}

// Post implements Loop. It never blocks. Work posted after the loop
// stopped is dropped.
func (l *EventLoop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.logger.Debug("dropping work posted to stopped loop")
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop and waits for it to finish.
// It must not be called from the loop goroutine.
func (l *EventLoop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-l.doneCh:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc implements Loop.
func (l *EventLoop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			// Stop may have raced with the timer firing; the flag is only
			// read and written on the loop.
			if t.cancelled || t.fired {
				return
			}
			t.fired = true
			fn()
		})
	})
	return t
}

// Now implements Loop.
func (l *EventLoop) Now() time.Time {
	return time.Now()
}

func (l *EventLoop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in loop callback", "panic", r)
		}
	}()
	fn()
}

// loopTimer must only be stopped from the loop goroutine.
type loopTimer struct {
	timer     *time.Timer
	cancelled bool
	fired     bool
}

func (t *loopTimer) Stop() bool {
	if t.cancelled || t.fired {
		return false
	}
	t.cancelled = true
	t.timer.Stop()
	return true
}
