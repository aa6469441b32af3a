package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/roach88/hapsync/internal/channels"
	"github.com/roach88/hapsync/internal/dispatch"
	"github.com/roach88/hapsync/internal/testutil"
	"github.com/roach88/hapsync/internal/timeline"
	"github.com/roach88/hapsync/internal/transport"
)

// run holds the per-scenario wiring.
type run struct {
	trace    *testutil.Trace
	sinks    map[string]*testutil.RecordingSink
	channels map[string]*channels.MotorChannel
	d        *dispatch.Dispatcher
}

// Run executes a scenario and evaluates its assertions.
//
// The dispatcher is real; only the sinks are replaced by recorders sharing
// one trace. A scenario that does not end with a shutdown step is shut down
// after its last step so every channel is released.
func Run(scenario *Scenario) (*Result, error) {
	tl, loadErr := loadTimeline(scenario)

	r := &run{
		trace:    &testutil.Trace{},
		sinks:    make(map[string]*testutil.RecordingSink),
		channels: make(map[string]*channels.MotorChannel),
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	var chans []channels.Channel
	for _, cs := range scenario.Channels {
		var sink *testutil.RecordingSink
		if cs.Legacy {
			sink = testutil.NewLegacySink(cs.Name, r.trace)
		} else {
			sink = testutil.NewRecordingSink(cs.Name, r.trace)
		}
		redundancy := cs.Redundancy
		if redundancy == 0 {
			redundancy = 1
		}
		rel := transport.NewReliable(sink, redundancy,
			transport.WithChannelName(cs.Name),
			transport.WithLogger(quiet),
			transport.WithEscalation(r.escalated),
		)

		var ch *channels.MotorChannel
		if cs.Legacy {
			ch = channels.NewLegacyChannel(rel)
		} else {
			ch = channels.NewMotorChannel(rel, scenario.Motors, scenario.Strength)
		}
		r.sinks[cs.Name] = sink
		r.channels[cs.Name] = ch
		chans = append(chans, ch)
	}

	r.d = dispatch.New(
		dispatch.WithPreSendOffset(scenario.Offset),
		dispatch.WithChannels(channels.NewSet(quiet, chans...)),
		dispatch.WithRecorder(r),
		dispatch.WithLogger(quiet),
	)

	// Resolved keeps load failures on the same path a real load takes.
	if err := r.d.InitializeAsync(timeline.Resolved(tl, loadErr)); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	r.d.Poll()

	shutdown := false
	for i, step := range scenario.Steps {
		if shutdown {
			return nil, fmt.Errorf("steps[%d]: step after shutdown", i)
		}
		shutdown = r.step(step)
	}
	if !shutdown {
		r.d.Shutdown()
	}

	result := &Result{
		Trace:    r.trace.Lines(),
		State:    r.d.State().String(),
		Channels: make(map[string]transport.ChannelState, len(r.channels)),
	}
	for name, ch := range r.channels {
		result.Channels[name] = ch.State()
	}

	result.Errors = evaluate(scenario.Assertions, result)
	result.Pass = len(result.Errors) == 0
	return result, nil
}

func loadTimeline(s *Scenario) (*timeline.Timeline, error) {
	if s.TimelineFile != "" {
		return timeline.LoadFile(s.timelinePath())
	}
	return timeline.New(s.Name, 0, 0, s.Timeline.Entries)
}

// step runs one host action and reports whether it was a shutdown.
func (r *run) step(st Step) bool {
	switch {
	case st.Tick != nil:
		playing := st.Playing == nil || *st.Playing
		marker := "> tick " + formatSeconds(*st.Tick)
		if !playing {
			marker += " paused"
		}
		r.trace.Add(marker)
		r.d.Tick(*st.Tick, playing)

	case st.Seek != nil:
		marker := "> seek " + formatSeconds(*st.Seek)
		if err := r.d.Seek(*st.Seek); err != nil {
			marker += " rejected"
		}
		r.trace.Add(marker)

	case st.Fail != nil:
		r.trace.Add(fmt.Sprintf("> fail %s %d", st.Fail.Channel, st.Fail.Count))
		r.sinks[st.Fail.Channel].FailNext(st.Fail.Count)

	case st.Down != nil:
		r.trace.Add(fmt.Sprintf("> down %s %t", st.Down.Channel, st.Down.Down))
		r.sinks[st.Down.Channel].SetDown(st.Down.Down)

	case st.Shutdown:
		r.trace.Add("> shutdown")
		r.d.Shutdown()
		return true
	}
	return false
}

func (r *run) escalated(channel string, state transport.ChannelState, _ error) {
	r.trace.Add(fmt.Sprintf("! %s escalated after %d", channel, state.ConsecutiveErrors))
}

// RecordDispatch implements dispatch.Recorder. Sends are already in the
// trace; nothing else is recorded per cue.
func (r *run) RecordDispatch(dispatch.Record) {}

// RecordTransition implements dispatch.Recorder.
func (r *run) RecordTransition(from, to dispatch.State, cause error) {
	line := fmt.Sprintf("= %s -> %s", from, to)
	if cause != nil {
		line += " (" + cause.Error() + ")"
	}
	r.trace.Add(line)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
