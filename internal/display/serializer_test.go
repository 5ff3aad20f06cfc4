package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/toastd/internal/loop"
)

func TestSerializer_RunsImmediatelyWhenIdle(t *testing.T) {
	s := NewSerializer(discardLogger())

	ran := false
	s.Submit("a", func(done func()) {
		ran = true
		assert.Equal(t, SerializerRunning, s.State())
		assert.Equal(t, "a", s.Current())
		done()
	})

	assert.True(t, ran)
	assert.Equal(t, SerializerIdle, s.State())
	assert.Empty(t, s.Current())
}

func TestSerializer_NeverOverlaps(t *testing.T) {
	l := loop.NewManual(time.Unix(0, 0))
	s := NewSerializer(discardLogger())

	running, peak := 0, 0
	var order []int
	for i := range 10 {
		s.Submit("task", func(done func()) {
			running++
			peak = max(peak, running)
			order = append(order, i)
			l.AfterFunc(time.Duration(10-i)*time.Millisecond, func() {
				running--
				done()
			})
		})
	}

	assert.Equal(t, 9, s.Len())
	l.Advance(time.Second)

	assert.Equal(t, 1, peak)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
	assert.Equal(t, SerializerIdle, s.State())
}

func TestSerializer_DoneIsIdempotent(t *testing.T) {
	s := NewSerializer(discardLogger())

	var first func()
	s.Submit("first", func(done func()) { first = done })

	secondRan, thirdRan := false, false
	var second func()
	s.Submit("second", func(done func()) {
		secondRan = true
		second = done
	})
	s.Submit("third", func(done func()) {
		thirdRan = true
		done()
	})

	first()
	assert.True(t, secondRan)

	// A stale done from the first task must not release the second.
	first()
	assert.False(t, thirdRan)
	assert.Equal(t, SerializerRunning, s.State())

	second()
	assert.True(t, thirdRan)
	assert.Equal(t, SerializerIdle, s.State())
}

func TestSerializer_PanicReleasesQueue(t *testing.T) {
	s := NewSerializer(discardLogger())

	s.Submit("boom", func(done func()) { panic("animation exploded") })

	ran := false
	s.Submit("after", func(done func()) {
		ran = true
		done()
	})

	assert.True(t, ran)
	assert.Equal(t, SerializerIdle, s.State())
}

func TestSerializer_Clear(t *testing.T) {
	s := NewSerializer(discardLogger())

	var release func()
	s.Submit("running", func(done func()) { release = done })

	dropped := false
	s.Submit("queued", func(done func()) {
		dropped = true
		done()
	})
	s.Submit("queued", func(done func()) {
		dropped = true
		done()
	})

	assert.Equal(t, 2, s.Clear())
	assert.Equal(t, SerializerRunning, s.State())

	release()
	assert.False(t, dropped)
	assert.Equal(t, SerializerIdle, s.State())
}

func TestSerializer_SynchronousTasksDoNotRecurse(t *testing.T) {
	s := NewSerializer(discardLogger())

	var release func()
	s.Submit("gate", func(done func()) { release = done })

	count := 0
	for range 10000 {
		s.Submit("sync", func(done func()) {
			count++
			done()
		})
	}

	release()
	assert.Equal(t, 10000, count)
	assert.Zero(t, s.Len())
}
