package display

import "time"

// Snapshot is a point-in-time view of the notification stack.
type Snapshot struct {
	Geometry   Geometry        `json:"geometry"`
	MaxVisible int             `json:"max_visible"`
	Active     []ToastSnapshot `json:"active"`
	Pending    []uint32        `json:"pending"`
	QueueState string          `json:"queue_state"`
	QueuedJobs int             `json:"queued_jobs"`
	Template   string          `json:"template"`
}

// ToastSnapshot describes one active notification.
type ToastSnapshot struct {
	ID        uint32    `json:"id"`
	Slot      int       `json:"slot"`
	Title     string    `json:"title"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	ShownAt   time.Time `json:"shown_at,omitzero"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (m *Manager) snapshot() Snapshot {
	s := Snapshot{
		Active:     make([]ToastSnapshot, 0, len(m.active)),
		Pending:    make([]uint32, 0, m.pending.Len()),
		QueueState: m.queue.State().String(),
		QueuedJobs: m.queue.Len(),
		Template:   m.Config().Content.Template,
	}
	if m.slots != nil {
		s.Geometry = m.slots.Geometry()
		s.MaxVisible = m.slots.Capacity()
	}

	for i, t := range m.active {
		ts := ToastSnapshot{
			ID:        t.id,
			Slot:      i,
			Title:     t.payload.Title,
			ShownAt:   t.shownAt,
			ExpiresAt: t.expiresAt,
		}
		if t.window != nil && !t.window.Destroyed() {
			ts.X, ts.Y = t.window.Position()
		}
		s.Active = append(s.Active, ts)
	}
	for el := m.pending.Front(); el != nil; el = el.Next() {
		s.Pending = append(s.Pending, el.Value.(*toast).id)
	}
	return s
}
