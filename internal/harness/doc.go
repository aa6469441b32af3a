// Package harness runs dispatch scenarios against recording channels.
//
// A scenario describes a timeline, a set of channels and a sequence of
// host actions (ticks, seeks, injected failures, shutdown). The harness
// drives a real dispatcher through them and captures every wire command in
// order, then evaluates assertions over that trace.
//
// # Scenario Format
//
//	name: two_motor_end_to_end
//	description: "Cue 1 is sent early by the pre-send offset"
//	offset: 0.03
//	strength: {min: 30, max: 60}
//	motors: [0, 1]
//	timeline:
//	  entries:
//	    - {time: 0, duty: 0}
//	    - {time: 1, duty: 255}
//	channels:
//	  - {name: udp, redundancy: 1}
//	steps:
//	  - tick: 0
//	  - tick: 0.98
//	  - shutdown: true
//	assertions:
//	  - type: trace_order
//	    lines: ["udp M0:0", "udp M0:60", "udp close"]
//
// A timeline may instead name a file with timeline_file, resolved relative
// to the scenario.
//
// # Trace
//
// Each line is one of:
//
//	udp M0:60                  successful send on channel "udp"
//	udp M0:60 !fail            attempt that failed
//	udp close                  channel released
//	! udp escalated after 10   escalation raised
//	= ready -> dispatching     dispatcher state change
//	> tick 0.98                host step, recorded before it runs
//
// # Assertion Types
//
//   - trace_contains: a line appears in the trace
//   - trace_count: a line appears exactly N times
//   - trace_order: lines appear in the given order (gaps allowed)
//   - final_state: the dispatcher ends in the given state
//   - channel_state: a channel's consecutive error count and latch
//
// # Deterministic Testing
//
// Ticks use the times written in the scenario, never the wall clock, and
// sinks record instead of sending, so the same scenario always produces the
// same trace. RunWithGolden compares it against
// testdata/golden/<name>.golden.
package harness
