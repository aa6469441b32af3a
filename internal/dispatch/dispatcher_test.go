package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hapsync/internal/audio"
	"github.com/roach88/hapsync/internal/channels"
	"github.com/roach88/hapsync/internal/duty"
	"github.com/roach88/hapsync/internal/testutil"
	"github.com/roach88/hapsync/internal/timeline"
	"github.com/roach88/hapsync/internal/transport"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var strength = duty.Range{Min: 30, Max: 60}

func motorChannel(sink *testutil.RecordingSink, redundancy int) *channels.MotorChannel {
	rel := transport.NewReliable(sink, redundancy,
		transport.WithChannelName(sink.Name()),
		transport.WithLogger(quiet()))
	return channels.NewMotorChannel(rel, []int{0, 1}, strength)
}

func mustTimeline(t *testing.T, cues ...timeline.Cue) *timeline.Timeline {
	t.Helper()
	tl, err := timeline.New("test", 44100, 50, cues)
	require.NoError(t, err)
	return tl
}

// collector records dispatches and transitions.
type collector struct {
	records     []Record
	transitions []string
}

func (c *collector) RecordDispatch(r Record) { c.records = append(c.records, r) }

func (c *collector) RecordTransition(from, to State, _ error) {
	c.transitions = append(c.transitions, from.String()+">"+to.String())
}

func (c *collector) indices() []int {
	out := make([]int, len(c.records))
	for i, r := range c.records {
		out[i] = r.Index
	}
	return out
}

func TestDispatcher_EndToEnd(t *testing.T) {
	sink := testutil.NewRecordingSink("udp", nil)
	d := New(
		WithPreSendOffset(0.03),
		WithChannels(channels.NewSet(quiet(), motorChannel(sink, 1))),
		WithLogger(quiet()))

	require.NoError(t, d.Initialize(mustTimeline(t,
		timeline.Cue{Time: 0, Duty: 0},
		timeline.Cue{Time: 1, Duty: 255})))
	assert.Equal(t, Ready, d.State())

	assert.Equal(t, 1, d.Tick(0.0, true))
	assert.Equal(t, []string{"M0:0", "M1:0"}, sink.Sent())
	assert.Equal(t, Dispatching, d.State())

	assert.Equal(t, 0, d.Tick(0.5, true))

	assert.Equal(t, 1, d.Tick(0.98, true))
	assert.Equal(t, []string{"M0:0", "M1:0", "M0:60", "M1:60"}, sink.Sent())
	assert.True(t, d.Done())
}

func TestDispatcher_InitializeErrors(t *testing.T) {
	set := channels.NewSet(quiet(), motorChannel(testutil.NewRecordingSink("udp", nil), 1))

	d := New(WithChannels(set), WithLogger(quiet()))
	err := d.Initialize(nil)
	assert.Equal(t, timeline.ErrCodeNoEntries, timeline.LoadErrorCode(err))
	assert.Equal(t, Disabled, d.State())
	assert.Zero(t, d.Tick(10, true), "disabled never dispatches")

	d = New(WithLogger(quiet()))
	err = d.Initialize(mustTimeline(t, timeline.Cue{Time: 0, Duty: 1}))
	assert.ErrorIs(t, err, ErrNoChannels)
	assert.Equal(t, Disabled, d.State())
	assert.ErrorIs(t, d.Err(), ErrNoChannels)

	err = d.Initialize(mustTimeline(t, timeline.Cue{Time: 0, Duty: 1}))
	assert.True(t, IsStateError(err))
}

func TestDispatcher_TickRequiresPlaying(t *testing.T) {
	sink := testutil.NewRecordingSink("udp", nil)
	d := New(WithChannels(channels.NewSet(quiet(), motorChannel(sink, 1))), WithLogger(quiet()))

	assert.Zero(t, d.Tick(5, true), "uninitialized")

	require.NoError(t, d.Initialize(mustTimeline(t, timeline.Cue{Time: 0, Duty: 10})))
	assert.Zero(t, d.Tick(5, false))
	assert.Equal(t, Ready, d.State())
	assert.Empty(t, sink.Sent())
}

func TestDispatcher_DrainsLargeJumpInOrder(t *testing.T) {
	rec := &collector{}
	sink := testutil.NewRecordingSink("udp", nil)
	d := New(
		WithPreSendOffset(0),
		WithChannels(channels.NewSet(quiet(), motorChannel(sink, 1))),
		WithRecorder(rec),
		WithLogger(quiet()))

	var cues []timeline.Cue
	for i := 0; i < 20; i++ {
		cues = append(cues, timeline.Cue{Time: float64(i) * 0.1, Duty: i})
	}
	require.NoError(t, d.Initialize(mustTimeline(t, cues...)))

	assert.Equal(t, 20, d.Tick(100, true))
	assert.Equal(t, 0, d.Tick(200, true))

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, rec.indices())
	for i, r := range rec.records {
		assert.Equal(t, int64(i+1), r.Seq)
	}
}

// For any sorted timeline and non-decreasing tick times, the cues sent by
// tick n are exactly those with time <= t_n + offset, each once, in order.
func TestDispatcher_ExactlyOnceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const offset = 0.03

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(60)
		cues := make([]timeline.Cue, n)
		for i := range cues {
			cues[i] = timeline.Cue{Time: rng.Float64() * 10, Duty: rng.Intn(256)}
		}
		sort.SliceStable(cues, func(i, j int) bool { return cues[i].Time < cues[j].Time })

		rec := &collector{}
		d := New(
			WithPreSendOffset(offset),
			WithChannels(channels.NewSet(quiet(), motorChannel(testutil.NewRecordingSink("udp", nil), 1))),
			WithRecorder(rec),
			WithLogger(quiet()))
		require.NoError(t, d.Initialize(mustTimeline(t, cues...)))

		now := 0.0
		for step := 0; step < 40; step++ {
			now += rng.Float64() * 0.6
			d.Tick(now, true)

			due := 0
			for _, c := range cues {
				if c.Time <= now+offset {
					due++
				}
			}
			require.Len(t, rec.records, due, "trial %d step %d", trial, step)
			for i, r := range rec.records {
				require.Equal(t, i, r.Index)
				require.Equal(t, cues[i], r.Cue)
			}
		}
	}
}

func TestDispatcher_SeekSkipsEarlierCues(t *testing.T) {
	rec := &collector{}
	d := New(
		WithPreSendOffset(0),
		WithChannels(channels.NewSet(quiet(), motorChannel(testutil.NewRecordingSink("udp", nil), 1))),
		WithRecorder(rec),
		WithLogger(quiet()))
	require.NoError(t, d.Initialize(mustTimeline(t,
		timeline.Cue{Time: 0, Duty: 1},
		timeline.Cue{Time: 1, Duty: 2},
		timeline.Cue{Time: 2, Duty: 3},
		timeline.Cue{Time: 3, Duty: 4})))

	require.NoError(t, d.Seek(1.5))
	assert.Equal(t, 2, d.Cursor())

	d.Tick(1.5, true)
	assert.Empty(t, rec.records)

	// playback returns to earlier times without a seek: nothing replays
	d.Tick(0.2, true)
	d.Tick(1.0, true)
	assert.Empty(t, rec.records)

	d.Tick(3, true)
	assert.Equal(t, []int{2, 3}, rec.indices())

	// explicit seek backwards re-arms
	require.NoError(t, d.Seek(1))
	d.Tick(1, true)
	assert.Equal(t, []int{2, 3, 1}, rec.indices())

	require.NoError(t, d.Seek(99))
	assert.Equal(t, 4, d.Cursor())
	assert.True(t, d.Done())
}

func TestDispatcher_SeekWrongState(t *testing.T) {
	d := New(WithLogger(quiet()))
	err := d.Seek(1)
	require.Error(t, err)
	assert.True(t, IsStateError(err))

	var se *StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, Uninitialized, se.State)
}

func TestDispatcher_Async(t *testing.T) {
	sink := testutil.NewRecordingSink("udp", nil)
	rec := &collector{}
	d := New(
		WithChannels(channels.NewSet(quiet(), motorChannel(sink, 1))),
		WithRecorder(rec),
		WithLogger(quiet()))

	p := timeline.Resolved(mustTimeline(t, timeline.Cue{Time: 0, Duty: 255}), nil)
	require.NoError(t, d.InitializeAsync(p))
	assert.Equal(t, Loading, d.State())

	assert.Equal(t, 1, d.Tick(0, true))
	assert.Equal(t, []string{"uninitialized>loading", "loading>ready", "ready>dispatching"}, rec.transitions)
}

func TestDispatcher_AsyncFailure(t *testing.T) {
	d := New(
		WithChannels(channels.NewSet(quiet(), motorChannel(testutil.NewRecordingSink("udp", nil), 1))),
		WithLogger(quiet()))

	loadErr := &timeline.LoadError{Code: timeline.ErrCodeNotFound, Path: "x.json"}
	require.NoError(t, d.InitializeAsync(timeline.Resolved(nil, loadErr)))
	assert.True(t, d.Poll())
	assert.Equal(t, Disabled, d.State())
	assert.True(t, timeline.IsLoadError(d.Err()))
}

func TestDispatcher_FlakyChannelDoesNotStopOthers(t *testing.T) {
	trace := &testutil.Trace{}
	good := testutil.NewRecordingSink("good", trace)
	bad := testutil.NewRecordingSink("bad", trace)
	bad.SetDown(true)

	badCh := motorChannel(bad, 3)
	d := New(
		WithPreSendOffset(0),
		WithChannels(channels.NewSet(quiet(), badCh, motorChannel(good, 1))),
		WithLogger(quiet()))
	require.NoError(t, d.Initialize(mustTimeline(t,
		timeline.Cue{Time: 0, Duty: 255},
		timeline.Cue{Time: 1, Duty: 0})))

	assert.Equal(t, 2, d.Tick(1, true))
	assert.Equal(t, []string{"M0:60", "M1:60", "M0:0", "M1:0"}, good.Sent())
	assert.Equal(t, 4, bad.Attempts(), "one attempt per motor command, no retries")
	assert.Equal(t, 4, badCh.State().ConsecutiveErrors)
}

func TestDispatcher_Shutdown(t *testing.T) {
	trace := &testutil.Trace{}
	a := testutil.NewRecordingSink("a", trace)
	b := testutil.NewRecordingSink("b", trace)
	b.SetDown(true)

	d := New(
		WithChannels(channels.NewSet(quiet(), motorChannel(a, 3), motorChannel(b, 3))),
		WithLogger(quiet()))
	require.NoError(t, d.Initialize(mustTimeline(t, timeline.Cue{Time: 0, Duty: 1})))
	trace.Reset()

	d.Shutdown()
	assert.Equal(t, Disabled, d.State())
	assert.Equal(t, []string{
		"a M0:0", "a M0:0", "a M0:0",
		"a M1:0", "a M1:0", "a M1:0",
		"b M0:0 !fail",
		"b M1:0 !fail",
		"a close",
		"b close",
	}, trace.Lines())

	d.Shutdown()
	assert.Len(t, trace.Lines(), 10, "second shutdown is a no-op")
}

func TestDispatcher_ShutdownAfterLoadFailure(t *testing.T) {
	sink := testutil.NewRecordingSink("udp", nil)
	d := New(WithChannels(channels.NewSet(quiet(), motorChannel(sink, 1))), WithLogger(quiet()))
	require.Error(t, d.Initialize(nil))

	d.Shutdown()
	assert.Equal(t, []string{"M0:0", "M1:0"}, sink.Sent())
	assert.True(t, sink.Closed())
}

func TestDispatcher_AudioStepsEveryPlayingTick(t *testing.T) {
	cfg := audio.DefaultConfig()
	synth := audio.NewSynth(cfg)
	ac := channels.NewAudioChannel(cfg, synth, nil)

	d := New(WithPreSendOffset(0), WithChannels(channels.NewSet(quiet(), ac)), WithLogger(quiet()))
	require.NoError(t, d.Initialize(mustTimeline(t, timeline.Cue{Time: 0, Duty: 85})))

	d.Tick(0, true)
	assert.InDelta(t, 1.0, ac.Envelope().Target(), 1e-9, "85/255*3 saturates")
	first := synth.Volume()
	assert.InDelta(t, 0.05, first, 1e-9)

	d.Tick(0.1, false)
	assert.Equal(t, first, synth.Volume(), "paused ticks do not step")

	d.Tick(0.2, true)
	assert.Greater(t, synth.Volume(), first, "still easing after the last cue")

	d.Shutdown()
	assert.Zero(t, synth.Volume())
}

type seekClock struct {
	*testutil.ManualClock
	seeks chan float64
}

func (c seekClock) Seeks() <-chan float64 { return c.seeks }

func TestDispatcher_Run(t *testing.T) {
	rec := &collector{}
	d := New(
		WithPreSendOffset(0),
		WithChannels(channels.NewSet(quiet(), motorChannel(testutil.NewRecordingSink("udp", nil), 1))),
		WithRecorder(rec),
		WithLinger(0),
		WithLogger(quiet()))
	require.NoError(t, d.Initialize(mustTimeline(t,
		timeline.Cue{Time: 0, Duty: 1},
		timeline.Cue{Time: 2, Duty: 2},
		timeline.Cue{Time: 4, Duty: 3})))

	clock := seekClock{ManualClock: testutil.NewManualClock(), seeks: make(chan float64, 1)}
	clock.Set(3)
	clock.seeks <- 3

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		clock.Set(5)
	}()

	require.NoError(t, d.Run(ctx, clock, time.Millisecond))
	assert.True(t, d.Done())

	// the seek may land before or after the first tick; cue 2 is always last
	require.NotEmpty(t, rec.records)
	assert.Equal(t, 2, rec.records[len(rec.records)-1].Index)
}

func TestDispatcher_RunCancelled(t *testing.T) {
	d := New(
		WithChannels(channels.NewSet(quiet(), motorChannel(testutil.NewRecordingSink("udp", nil), 1))),
		WithLogger(quiet()))
	require.NoError(t, d.Initialize(mustTimeline(t, timeline.Cue{Time: 100, Duty: 1})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Run(ctx, testutil.NewManualClock(), time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeq(t *testing.T) {
	s := NewSeqAt(41)
	assert.Equal(t, int64(42), s.Next())
	assert.Equal(t, int64(42), s.Current())
}

func TestRecorders_FanOut(t *testing.T) {
	a, b := &collector{}, &collector{}
	sink := testutil.NewRecordingSink("udp", nil)
	d := New(
		WithChannels(channels.NewSet(quiet(), motorChannel(sink, 1))),
		WithRecorder(Recorders(a, nil, b)),
		WithLogger(quiet()))

	require.NoError(t, d.Initialize(mustTimeline(t, timeline.Cue{Time: 0, Duty: 10})))
	d.Tick(0, true)

	for _, c := range []*collector{a, b} {
		assert.Equal(t, []int{0}, c.indices())
		assert.Equal(t, []string{"uninitialized>ready", "ready>dispatching"}, c.transitions)
	}
}
