package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsPlayingAtZero(t *testing.T) {
	clock := NewManualClock()
	pos, playing := clock.Position()
	assert.Equal(t, 0.0, pos)
	assert.True(t, playing)
}

func TestManualClock_SetAndAdvance(t *testing.T) {
	clock := NewManualClock()

	clock.Set(1.5)
	clock.Advance(0.25)
	pos, _ := clock.Position()
	assert.Equal(t, 1.75, pos)

	clock.SetPlaying(false)
	_, playing := clock.Position()
	assert.False(t, playing)
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(1)
			clock.Position()
		}()
	}
	wg.Wait()

	pos, _ := clock.Position()
	assert.Equal(t, 100.0, pos)
}
