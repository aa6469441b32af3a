package dispatch

import (
	"context"
	"time"

	"github.com/roach88/hapsync/internal/playback"
)

// Run ticks the dispatcher from clock every interval until ctx is
// cancelled, the dispatcher is disabled, or the linger after the last cue
// has passed. Explicit seeks announced by the clock are applied between
// ticks.
//
// CRITICAL: Must be called from exactly ONE goroutine, and no other method
// may be called while it runs. Run does not shut the dispatcher down.
func (d *Dispatcher) Run(ctx context.Context, clock playback.Clock, interval time.Duration) error {
	var seeks <-chan float64
	if s, ok := clock.(playback.Seeker); ok {
		seeks = s.Seeks()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.log.Info("dispatcher running", "interval", interval, "offset", d.offset)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case pos := <-seeks:
			if err := d.Seek(pos); err != nil {
				d.log.Debug("seek ignored", "error", err)
			}

		case <-ticker.C:
			pos, playing := clock.Position()
			d.Tick(pos, playing)

			if d.state == Disabled {
				return d.cause
			}
			if d.linger >= 0 && d.Done() && pos >= d.tl.Duration()+d.linger {
				d.log.Info("timeline finished", "dispatched", d.seq.Current())
				return nil
			}
		}
	}
}
