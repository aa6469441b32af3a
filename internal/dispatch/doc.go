// Package dispatch implements the cue dispatcher.
//
// A Dispatcher owns a loaded timeline and a cursor into it. Each Tick reads
// the playback position, adds the pre-send offset, and hands every cue that
// has come due to the channel set, in timeline order, advancing the cursor
// past it. A cue is dispatched at most once per play-through: going back in
// time without an explicit Seek does not replay anything, and Seek skips
// every cue before the new position for good.
//
// State machine:
//
//	Uninitialized -> Loading -> Ready -> Dispatching -> Disabled
//	       \______________________/
//	        Initialize (synchronous)
//
// Disabled is terminal. It is entered on a load failure, when no channel is
// available, or by Shutdown.
//
// CRITICAL: A Dispatcher is not safe for concurrent use. Run owns it for
// the lifetime of a session; all sends and channel-state mutation happen on
// that goroutine. The audio device callback reads only the synth volume,
// which is published atomically.
package dispatch
