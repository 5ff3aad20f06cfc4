package display

import (
	"time"

	"github.com/jmylchreest/toastd/internal/loop"
)

// Slide moves a window vertically to a target position over time.
type Slide struct {
	loop     loop.Loop
	window   Window
	startY   int
	targetY  int
	duration time.Duration
	step     time.Duration
	started  time.Time
	onDone   func()
	timer    loop.Timer
	finished bool
}

// StartSlide animates window to target and calls onDone when the window
// reaches it, is destroyed, or the slide is cancelled. The horizontal
// coordinate is applied immediately.
//
// A zero delta completes at once without touching the window. A zero
// duration jumps straight to the target.
func StartSlide(l loop.Loop, w Window, target Point, duration, step time.Duration, onDone func()) *Slide {
	s := &Slide{
		loop:     l,
		window:   w,
		targetY:  target.Y,
		duration: duration,
		step:     step,
		onDone:   onDone,
	}

	if w == nil || w.Destroyed() {
		s.finish()
		return s
	}

	x, y := w.Position()
	s.startY = y
	if x != target.X {
		w.SetPosition(target.X, y)
	}
	if y == target.Y {
		s.finish()
		return s
	}
	if duration <= 0 {
		w.SetPosition(target.X, target.Y)
		s.finish()
		return s
	}
	if s.step <= 0 || s.step > duration {
		s.step = duration
	}

	s.started = l.Now()
	s.timer = l.AfterFunc(s.step, s.tick)
	return s
}

// Cancel stops the slide where it is and reports completion.
func (s *Slide) Cancel() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.finish()
}

// Done reports whether the slide has completed.
func (s *Slide) Done() bool {
	return s.finished
}

func (s *Slide) tick() {
	if s.finished {
		return
	}
	if s.window.Destroyed() {
		s.finish()
		return
	}

	elapsed := s.loop.Now().Sub(s.started)
	pct := float64(elapsed) / float64(s.duration) * 100
	if pct > 100 {
		pct = 100
	}

	delta := s.targetY - s.startY
	direction := 1
	if delta < 0 {
		delta = -delta
		direction = -1
	}
	y := s.startY + int(float64(delta*direction)*pct/100)

	x, _ := s.window.Position()
	s.window.SetPosition(x, y)

	if elapsed >= s.duration {
		s.window.SetPosition(x, s.targetY)
		s.finish()
		return
	}
	s.timer = s.loop.AfterFunc(s.step, s.tick)
}

func (s *Slide) finish() {
	if s.finished {
		return
	}
	s.finished = true
	if s.onDone != nil {
		s.onDone()
	}
}
