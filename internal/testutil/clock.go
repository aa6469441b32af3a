package testutil

import "sync"

// ManualClock is a playback clock moved by hand.
//
// Unlike playback.WallClock, ManualClock never advances on its own. Tests
// set the position and playing flag explicitly, so every tick sees exactly
// the time the test chose.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu      sync.Mutex
	pos     float64
	playing bool
}

// NewManualClock creates a playing clock at position 0.
func NewManualClock() *ManualClock {
	return &ManualClock{playing: true}
}

// Position implements playback.Clock.
func (c *ManualClock) Position() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos, c.playing
}

// Set moves the clock to seconds.
func (c *ManualClock) Set(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = seconds
}

// Advance moves the clock forward by seconds.
func (c *ManualClock) Advance(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos += seconds
}

// SetPlaying starts or pauses the clock.
func (c *ManualClock) SetPlaying(playing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = playing
}
