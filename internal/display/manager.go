package display

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/loop"
)

// CloseCallback is called when any notification closes.
type CloseCallback func(id uint32, reason CloseReason)

// ActionCallback is called when a notification is clicked.
type ActionCallback func(id uint32, action string)

// toast is the manager's record of one notification.
type toast struct {
	id        uint32
	payload   Payload
	state     State
	window    Window
	createdAt time.Time
	shownAt   time.Time
	expiresAt time.Time

	dismiss  loop.Timer
	watchdog loop.Timer
	release  func() // Completes the show task
	revealed bool
	promoted bool // Holds a reserved slot until its show task runs
	closing  bool
	reason   CloseReason
}

func (t *toast) stopTimers() {
	if t.dismiss != nil {
		t.dismiss.Stop()
		t.dismiss = nil
	}
	if t.watchdog != nil {
		t.watchdog.Stop()
		t.watchdog = nil
	}
}

func (t *toast) finishShow() {
	if t.release != nil {
		release := t.release
		t.release = nil
		release()
	}
}

// Manager owns the notification lifecycle. Exported methods are safe for
// concurrent use; all state changes happen on the loop.
type Manager struct {
	loop      loop.Loop
	presenter Presenter
	opener    URLOpener
	logger    *slog.Logger

	cfgMu  sync.RWMutex
	config *config.Config

	nextID atomic.Uint32

	// Loop-confined state.
	started      bool
	slots        *SlotAllocator
	queue        *Serializer
	active       []*toast
	pending      *list.List
	pendingIndex map[uint32]*list.Element
	reserved     int
	tracked      map[uint32]*toast
	byWindow     map[string]*toast

	cbMu     sync.RWMutex
	onClose  CloseCallback
	onAction ActionCallback
}

// NewManager creates a notification manager. The manager does nothing until
// Start has measured the display.
func NewManager(l loop.Loop, presenter Presenter, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Manager{
		loop:         l,
		presenter:    presenter,
		opener:       NewCommandOpener(),
		logger:       logger,
		config:       cfg.Clone(),
		queue:        NewSerializer(logger),
		pending:      list.New(),
		pendingIndex: make(map[uint32]*list.Element),
		tracked:      make(map[uint32]*toast),
		byWindow:     make(map[string]*toast),
	}
}

// SetURLOpener replaces the opener used for clicked notifications with a URL.
// Must be called before Start.
func (m *Manager) SetURLOpener(o URLOpener) {
	m.opener = o
}

// Start measures the work area and computes slot geometry. It must run on
// the loop, or before the loop starts dispatching.
func (m *Manager) Start() error {
	cfg := m.Config()

	area, err := m.presenter.WorkArea()
	if err != nil {
		return &DisplayError{Message: "failed to query work area", Cause: err}
	}
	g, err := ComputeGeometry(area, cfg.Display)
	if err != nil {
		return &DisplayError{Message: "failed to compute geometry", Cause: err}
	}

	m.slots = NewSlotAllocator(g)
	m.started = true

	m.logger.Info("notification manager started",
		"work_area", fmt.Sprintf("%dx%d+%d+%d", area.Width, area.Height, area.X, area.Y),
		"max_visible", g.MaxVisible,
	)
	return nil
}

// SetCloseCallback sets a callback for notification closes.
func (m *Manager) SetCloseCallback(cb CloseCallback) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onClose = cb
}

// SetActionCallback sets a callback for notification clicks.
func (m *Manager) SetActionCallback(cb ActionCallback) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onAction = cb
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() *config.Config {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.config.Clone()
}

// Notify queues a notification for display and returns its id.
func (m *Manager) Notify(p Payload) uint32 {
	id := m.nextID.Add(1)
	m.loop.Post(func() { m.enqueue(id, p) })
	return id
}

// Close closes the notification with the given id, wherever it is in its
// lifecycle. Unknown ids are ignored.
func (m *Manager) Close(id uint32) {
	m.loop.Post(func() { m.closeByID(id, ReasonClosedByAPI) })
}

// CloseAll closes every notification and drops all queued work.
func (m *Manager) CloseAll() {
	m.loop.Post(m.closeAll)
}

// Dispatch delivers a signal from presented content.
func (m *Manager) Dispatch(sig Signal) {
	m.loop.Post(func() { m.handleSignal(sig) })
}

// SetConfiguration merges a partial update into the configuration.
// Invalid updates are rejected and leave the current configuration in place.
func (m *Manager) SetConfiguration(p config.Partial) error {
	if p.IsEmpty() {
		return nil
	}

	m.cfgMu.Lock()
	next, err := m.config.Merge(p)
	if err != nil {
		m.cfgMu.Unlock()
		return err
	}
	m.config = next
	m.cfgMu.Unlock()

	m.loop.Post(func() { m.applyConfig(p) })
	return nil
}

// ContentTemplateLocation returns the template used for new windows.
func (m *Manager) ContentTemplateLocation() string {
	return m.Config().Content.Template
}

// SetContentTemplateLocation sets the template used for new windows.
// Windows already on screen keep their content.
func (m *Manager) SetContentTemplateLocation(location string) error {
	if location == "" {
		return &DisplayError{Message: "template location must not be empty"}
	}
	return m.SetConfiguration(config.Partial{Template: &location})
}

// Snapshot returns the current state of the stack.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	m.loop.Post(func() { ch <- m.snapshot() })

	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (m *Manager) enqueue(id uint32, p Payload) {
	t := &toast{
		id:        id,
		payload:   p,
		state:     StateQueued,
		createdAt: m.loop.Now(),
	}
	m.tracked[id] = t

	m.logger.Debug("notification queued", "notification_id", id, "title", p.Title)
	m.submitShow(t)
}

func (m *Manager) submitShow(t *toast) {
	m.queue.Submit(fmt.Sprintf("show-%d", t.id), func(done func()) {
		m.show(t, done)
	})
}

// show is the body of a show task.
func (m *Manager) show(t *toast, done func()) {
	if t.state != StateQueued {
		// Closed while waiting in the queue.
		done()
		return
	}
	if !m.started {
		m.logger.Error("notification dropped, display not ready", "notification_id", t.id)
		m.drop(t, ReasonClosedByAPI)
		done()
		return
	}

	promoted := t.promoted
	if promoted {
		t.promoted = false
		m.reserved--
	}

	if _, ok := m.slots.NextInsertPosition(len(m.active) + m.reserved); !ok {
		t.state = StatePending
		if promoted {
			m.pendingIndex[t.id] = m.pending.PushFront(t)
		} else {
			m.pendingIndex[t.id] = m.pending.PushBack(t)
		}
		m.logger.Debug("notification pending",
			"notification_id", t.id,
			"pending", m.pending.Len(),
		)
		done()
		return
	}

	pos := m.insertPosition()
	cfg := m.Config()
	win, err := m.presenter.CreateWindow(WindowOptions{
		ID:       ulid.Make().String(),
		Width:    cfg.Display.Width,
		Height:   cfg.Display.Height,
		Template: cfg.Content.Template,
	})
	if err != nil {
		m.logger.Error("failed to create notification window",
			"notification_id", t.id,
			"error", err,
		)
		m.drop(t, ReasonClosedByAPI)
		done()
		return
	}

	t.window = win
	t.state = StateActive
	t.release = done
	m.byWindow[win.ID()] = t
	m.active = append(m.active, t)

	win.SetPosition(pos.X, pos.Y)
	win.OnClosed(func() { m.handleWindowClosed(t) })
	win.OnContentReady(func() { m.reveal(t) })

	m.armDismiss(t, cfg)
	t.watchdog = m.loop.AfterFunc(cfg.Timeouts.ContentReady.Duration(), func() {
		t.watchdog = nil
		if !t.revealed && t.state == StateActive {
			m.logger.Warn("content not ready, revealing anyway",
				"notification_id", t.id,
				"window_id", win.ID(),
			)
		}
		m.reveal(t)
	})

	m.logger.Debug("notification shown",
		"notification_id", t.id,
		"slot", len(m.active)-1,
		"x", pos.X,
		"y", pos.Y,
	)
}

// insertPosition returns the slot above the topmost active toast. If that
// toast has not yet slid down into its slot, the new one is stacked directly
// above it and a pending reflow moves both. The result never lies above the
// highest slot.
func (m *Manager) insertPosition() Point {
	pos := m.slots.TargetPositionForIndex(len(m.active))
	if n := len(m.active); n > 0 {
		if top := m.active[n-1].window; top != nil && !top.Destroyed() {
			_, y := top.Position()
			pos.Y = min(pos.Y, y-m.slots.Geometry().TotalHeight)
		}
	}
	highest := m.slots.TargetPositionForIndex(m.slots.Capacity() - 1)
	pos.Y = max(pos.Y, highest.Y)
	return pos
}

func (m *Manager) armDismiss(t *toast, cfg *config.Config) {
	d := cfg.Timeouts.DisplayTime.Duration()
	if t.payload.DisplayTime != nil {
		d = *t.payload.DisplayTime
	}
	if d <= 0 {
		return
	}

	t.expiresAt = m.loop.Now().Add(d)
	t.dismiss = m.loop.AfterFunc(d, func() {
		t.dismiss = nil
		m.closeToast(t, ReasonTimeout)
	})
}

// reveal delivers content and shows the window. Called once content is
// ready or the watchdog fires, whichever is first.
func (m *Manager) reveal(t *toast) {
	if t.revealed {
		return
	}
	t.revealed = true
	if t.watchdog != nil {
		t.watchdog.Stop()
		t.watchdog = nil
	}

	if t.state != StateActive || t.window == nil || t.window.Destroyed() {
		t.finishShow()
		return
	}

	if err := t.window.SendPayload(m.contentFor(t)); err != nil {
		m.logger.Warn("failed to deliver content",
			"notification_id", t.id,
			"error", err,
		)
	}
	t.window.ShowInactive()
	t.shownAt = m.loop.Now()

	if cb := t.payload.OnShow; cb != nil {
		m.safeCall("on_show", t.id, func() { cb(t.id) })
	}
	t.finishShow()
}

func (m *Manager) contentFor(t *toast) Content {
	cfg := m.Config()
	icon := t.payload.Icon
	if icon == "" {
		icon = cfg.Content.Icon
	}
	return Content{
		WindowID: t.window.ID(),
		ID:       t.id,
		Title:    t.payload.Title,
		Text:     t.payload.Text,
		Subtext:  t.payload.Subtext,
		Icon:     icon,
		URL:      t.payload.URL,
		Template: cfg.Content.Template,
		Width:    cfg.Display.Width,
		Height:   cfg.Display.Height,
	}
}

func (m *Manager) closeByID(id uint32, reason CloseReason) bool {
	t, ok := m.tracked[id]
	if !ok {
		m.logger.Debug("close ignored, unknown notification", "notification_id", id)
		return false
	}
	m.closeToast(t, reason)
	return true
}

// closeToast runs the close sequence for a notification in any state.
func (m *Manager) closeToast(t *toast, reason CloseReason) {
	switch t.state {
	case StateQueued:
		// The show task sees StateClosed and skips.
		m.drop(t, reason)

	case StatePending:
		if el, ok := m.pendingIndex[t.id]; ok {
			m.pending.Remove(el)
			delete(m.pendingIndex, t.id)
		}
		m.drop(t, reason)

	case StateActive:
		if t.closing {
			return
		}
		t.closing = true
		t.reason = reason
		t.stopTimers()

		if t.window != nil && !t.window.Destroyed() {
			t.window.Hide()
			t.window.Destroy()
		}
		// Adapters may or may not fire OnClosed synchronously from Destroy.
		m.handleWindowClosed(t)
	}
}

// drop closes a notification that never reached a slot.
func (m *Manager) drop(t *toast, reason CloseReason) {
	if t.promoted {
		t.promoted = false
		m.reserved--
	}
	t.state = StateClosed
	t.stopTimers()
	delete(m.tracked, t.id)
	m.notifyClosed(t, reason)
}

// handleWindowClosed reacts to a window's close event: it frees the slot,
// promotes one pending notification and reflows the stack above the gap.
func (m *Manager) handleWindowClosed(t *toast) {
	if t.state != StateActive {
		return
	}
	if !t.closing {
		// Closed externally, e.g. by the compositor.
		t.closing = true
		t.reason = ReasonClose
	}

	t.state = StateClosed
	t.stopTimers()

	idx := m.activeIndex(t)
	if idx >= 0 {
		m.active = append(m.active[:idx], m.active[idx+1:]...)
	}
	delete(m.tracked, t.id)
	if t.window != nil {
		delete(m.byWindow, t.window.ID())
	}
	// Closed before its content was ready; let the queue move on.
	t.finishShow()

	m.logger.Debug("notification closed",
		"notification_id", t.id,
		"reason", t.reason,
		"active", len(m.active),
		"pending", m.pending.Len(),
	)
	m.notifyClosed(t, t.reason)

	if idx >= 0 {
		m.submitReflow(idx)
	}
	m.promotePending()
}

// promotePending moves pending notifications into the show queue while
// capacity allows. Each promotion reserves a slot so a notification queued
// later cannot take it first.
func (m *Manager) promotePending() {
	for m.pending.Len() > 0 && len(m.active)+m.reserved < m.slots.Capacity() {
		el := m.pending.Front()
		t := m.pending.Remove(el).(*toast)
		delete(m.pendingIndex, t.id)

		t.state = StateQueued
		t.promoted = true
		m.reserved++
		m.logger.Debug("promoting pending notification", "notification_id", t.id)
		m.submitShow(t)
	}
}

func (m *Manager) submitReflow(from int) {
	m.queue.Submit(fmt.Sprintf("reflow-%d", from), func(done func()) {
		m.reflow(from, done)
	})
}

// reflow slides every active toast at index >= from to its target slot.
// Targets are computed when the task runs, not when it was submitted.
func (m *Manager) reflow(from int, done func()) {
	from = max(from, 0)
	if from >= len(m.active) {
		done()
		return
	}

	cfg := m.Config()
	remaining := len(m.active) - from
	finished := func() {
		remaining--
		if remaining == 0 {
			done()
		}
	}

	for i := from; i < len(m.active); i++ {
		StartSlide(m.loop, m.active[i].window, m.slots.TargetPositionForIndex(i),
			cfg.Animation.Duration.Duration(), cfg.Animation.Step.Duration(), finished)
	}
}

func (m *Manager) closeAll() {
	dropped := m.queue.Clear()

	var closed int
	for _, t := range m.tracked {
		if t.state == StateQueued {
			m.drop(t, ReasonClosedByAPI)
			closed++
		}
	}
	for m.pending.Len() > 0 {
		t := m.pending.Remove(m.pending.Front()).(*toast)
		delete(m.pendingIndex, t.id)
		m.drop(t, ReasonClosedByAPI)
		closed++
	}

	// Detach before destroying so close events do not reflow or promote.
	active := m.active
	m.active = nil
	for _, t := range active {
		t.state = StateClosed
		t.closing = true
		t.stopTimers()
		delete(m.tracked, t.id)
		if t.window != nil {
			delete(m.byWindow, t.window.ID())
			if !t.window.Destroyed() {
				t.window.Hide()
				t.window.Destroy()
			}
		}
		m.notifyClosed(t, ReasonClosedByAPI)
		t.finishShow()
		closed++
	}
	m.reserved = 0

	m.logger.Info("closed all notifications",
		"closed", closed,
		"dropped_tasks", dropped,
	)
}

func (m *Manager) handleSignal(sig Signal) {
	t, ok := m.byWindow[sig.WindowID]
	if !ok || t.state != StateActive {
		m.logger.Debug("signal for unknown window ignored",
			"kind", sig.Kind,
			"window_id", sig.WindowID,
		)
		return
	}

	switch sig.Kind {
	case SignalClose:
		m.closeToast(t, ReasonClose)
	case SignalClick:
		m.handleClick(t)
	default:
		m.logger.Warn("unknown signal", "kind", sig.Kind, "window_id", sig.WindowID)
	}
}

// handleClick opens the payload URL and invokes the click callback. The
// toast stays open unless the callback closes it.
func (m *Manager) handleClick(t *toast) {
	if url := t.payload.URL; url != "" && m.opener != nil {
		if err := m.opener.Open(url); err != nil {
			m.logger.Warn("failed to open url",
				"notification_id", t.id,
				"url", url,
				"error", err,
			)
		}
	}

	if cb := t.payload.OnClick; cb != nil {
		ev := ClickEvent{
			ID: t.id,
			Close: func() {
				m.loop.Post(func() { m.closeToast(t, ReasonClick) })
			},
		}
		m.safeCall("on_click", t.id, func() { cb(ev) })
	}

	m.cbMu.RLock()
	onAction := m.onAction
	m.cbMu.RUnlock()
	if onAction != nil {
		m.safeCall("action_callback", t.id, func() { onAction(t.id, "default") })
	}
}

func (m *Manager) notifyClosed(t *toast, reason CloseReason) {
	if cb := t.payload.OnClose; cb != nil {
		m.safeCall("on_close", t.id, func() { cb(CloseEvent{ID: t.id, Reason: reason}) })
	}

	m.cbMu.RLock()
	onClose := m.onClose
	m.cbMu.RUnlock()
	if onClose != nil {
		m.safeCall("close_callback", t.id, func() { onClose(t.id, reason) })
	}
}

func (m *Manager) applyConfig(p config.Partial) {
	if !m.started || !p.AffectsGeometry() {
		return
	}

	cfg := m.Config()
	area, err := m.presenter.WorkArea()
	if err != nil {
		m.logger.Warn("failed to query work area, keeping geometry", "error", err)
		return
	}
	g, err := ComputeGeometry(area, cfg.Display)
	if err != nil {
		m.logger.Warn("failed to compute geometry, keeping previous", "error", err)
		return
	}

	old := m.slots.Geometry()
	m.slots.SetGeometry(g)
	if g == old {
		return
	}

	m.logger.Info("geometry updated",
		"max_visible", g.MaxVisible,
		"active", len(m.active),
	)

	// Toasts above a reduced cap stay until they close on their own.
	for _, t := range m.active {
		if t.window != nil && !t.window.Destroyed() {
			t.window.SetSize(cfg.Display.Width, cfg.Display.Height)
		}
	}
	m.submitReflow(0)
	m.promotePending()
}

func (m *Manager) activeIndex(t *toast) int {
	for i, a := range m.active {
		if a == t {
			return i
		}
	}
	return -1
}

// safeCall runs a user callback, logging instead of propagating panics.
func (m *Manager) safeCall(name string, id uint32, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("notification callback panicked",
				"callback", name,
				"notification_id", id,
				"error", fmt.Sprint(r),
			)
		}
	}()
	fn()
}

// DisplayError represents an error in display operations.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
