package display

import (
	"fmt"
	"log/slog"
)

// Task is a unit of work run by the Serializer. It must call done exactly
// once when its visual work has finished; extra calls are ignored.
type Task func(done func())

// SerializerState is the state of the animation queue.
type SerializerState int

const (
	// SerializerIdle means no task is running.
	SerializerIdle SerializerState = iota
	// SerializerRunning means a task has started and not yet called done.
	SerializerRunning
)

// String returns the string representation of SerializerState.
func (s SerializerState) String() string {
	if s == SerializerRunning {
		return "running"
	}
	return "idle"
}

type queuedTask struct {
	name string
	task Task
}

// Serializer runs tasks one at a time in submission order, so no two
// window animations ever overlap. It is confined to the manager's loop.
type Serializer struct {
	logger   *slog.Logger
	queue    []queuedTask
	state    SerializerState
	current  string
	gen      uint64
	draining bool
}

// NewSerializer creates an idle serializer.
func NewSerializer(logger *slog.Logger) *Serializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serializer{logger: logger}
}

// Submit appends a task. If the serializer is idle the task starts immediately.
func (s *Serializer) Submit(name string, task Task) {
	s.queue = append(s.queue, queuedTask{name: name, task: task})
	if s.state == SerializerIdle && !s.draining {
		s.drain()
	}
}

// Clear drops every queued task that has not started and returns how many
// were dropped. A running task is unaffected.
func (s *Serializer) Clear() int {
	n := len(s.queue)
	s.queue = nil
	return n
}

// State returns the current state.
func (s *Serializer) State() SerializerState {
	return s.state
}

// Current returns the name of the running task, if any.
func (s *Serializer) Current() string {
	return s.current
}

// Len returns the number of queued tasks, excluding the running one.
func (s *Serializer) Len() int {
	return len(s.queue)
}

// drain starts tasks until one stays running. Tasks that complete
// synchronously return here instead of recursing.
func (s *Serializer) drain() {
	s.draining = true
	defer func() { s.draining = false }()

	for s.state == SerializerIdle && len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = queuedTask{}
		s.queue = s.queue[1:]

		s.gen++
		s.state = SerializerRunning
		s.current = next.name
		s.start(next, s.gen)
	}
}

func (s *Serializer) start(qt queuedTask, gen uint64) {
	done := func() { s.finish(gen) }

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("animation task failed",
				"task", qt.name,
				"error", fmt.Sprint(r),
			)
			done()
		}
	}()

	qt.task(done)
}

func (s *Serializer) finish(gen uint64) {
	if gen != s.gen || s.state != SerializerRunning {
		return
	}
	s.state = SerializerIdle
	s.current = ""
	if !s.draining {
		s.drain()
	}
}
