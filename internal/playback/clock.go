// Package playback provides the playback clocks a dispatcher follows.
package playback

import (
	"sync"
	"time"
)

// Clock reports the position of the media being played.
type Clock interface {
	// Position returns the current time in seconds and whether playback is
	// running.
	Position() (seconds float64, playing bool)
}

// Seeker is implemented by clocks that announce explicit seeks. Each value
// is the new position in seconds.
type Seeker interface {
	Seeks() <-chan float64
}

// WallClock stands in for a video player: it advances in real time while
// playing and supports pause and seek.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type WallClock struct {
	mu      sync.Mutex
	now     func() time.Time
	base    float64   // position at the last start, pause or seek
	started time.Time // wall time of the last start; zero while paused
	rate    float64
	seeks   chan float64
}

// WallClockOption configures a WallClock.
type WallClockOption func(*WallClock)

// WithNow replaces the time source.
func WithNow(now func() time.Time) WallClockOption {
	return func(c *WallClock) { c.now = now }
}

// WithRate plays faster or slower than real time.
func WithRate(rate float64) WallClockOption {
	return func(c *WallClock) { c.rate = rate }
}

// NewWallClock returns a paused clock at position 0.
func NewWallClock(opts ...WallClockOption) *WallClock {
	c := &WallClock{
		now:   time.Now,
		rate:  1,
		seeks: make(chan float64, 8),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Position implements Clock.
func (c *WallClock) Position() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position(), !c.started.IsZero()
}

func (c *WallClock) position() float64 {
	if c.started.IsZero() {
		return c.base
	}
	return c.base + c.now().Sub(c.started).Seconds()*c.rate
}

// Play starts or resumes the clock.
func (c *WallClock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() {
		c.started = c.now()
	}
}

// Pause freezes the clock at its current position.
func (c *WallClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started.IsZero() {
		c.base = c.position()
		c.started = time.Time{}
	}
}

// Seek jumps to seconds and announces it on Seeks. If nobody is draining
// Seeks the announcement is dropped once the buffer is full.
func (c *WallClock) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = seconds
	if !c.started.IsZero() {
		c.started = c.now()
	}
	select {
	case c.seeks <- seconds:
	default:
	}
}

// Seeks implements Seeker.
func (c *WallClock) Seeks() <-chan float64 { return c.seeks }
