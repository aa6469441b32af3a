package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/roach88/hapsync/internal/channels"
	"github.com/roach88/hapsync/internal/timeline"
)

// State is the dispatcher lifecycle state.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Dispatching
	Disabled
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Dispatching:
		return "dispatching"
	case Disabled:
		return "disabled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultPreSendOffset is the latency compensation used when none is
// configured.
const DefaultPreSendOffset = 0.03

// Dispatcher turns playback time into channel commands.
type Dispatcher struct {
	offset   float64
	set      *channels.Set
	recorder Recorder
	log      *slog.Logger
	seq      *Seq

	state   State
	cause   error
	tl      *timeline.Timeline
	cursor  int
	pending *timeline.Pending
	closed  bool

	linger float64 // Run returns this long after the last cue; <0 never
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPreSendOffset sets the latency compensation in seconds. It applies to
// every channel alike.
func WithPreSendOffset(seconds float64) Option {
	return func(d *Dispatcher) { d.offset = seconds }
}

// WithChannels sets the channels cues are fanned out to.
func WithChannels(set *channels.Set) Option {
	return func(d *Dispatcher) { d.set = set }
}

// WithRecorder observes dispatches and state changes.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithSeq continues an existing sequence.
func WithSeq(seq *Seq) Option {
	return func(d *Dispatcher) { d.seq = seq }
}

// WithLinger makes Run return once every cue has been dispatched and the
// clock is seconds past the last one, leaving time for the audio envelope
// to settle.
func WithLinger(seconds float64) Option {
	return func(d *Dispatcher) { d.linger = seconds }
}

// New returns an Uninitialized dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		offset:   DefaultPreSendOffset,
		recorder: nopRecorder{},
		log:      slog.Default(),
		seq:      &Seq{},
		linger:   -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the lifecycle state.
func (d *Dispatcher) State() State { return d.state }

// Err returns the error that disabled the dispatcher, if any.
func (d *Dispatcher) Err() error { return d.cause }

// Cursor returns the index of the next cue to dispatch. Len of the timeline
// means no cue is left.
func (d *Dispatcher) Cursor() int { return d.cursor }

// Timeline returns the loaded timeline, or nil.
func (d *Dispatcher) Timeline() *timeline.Timeline { return d.tl }

// Done reports whether every cue has been dispatched.
func (d *Dispatcher) Done() bool {
	return d.tl != nil && d.cursor >= d.tl.Len()
}

// Offset returns the pre-send offset in seconds.
func (d *Dispatcher) Offset() float64 { return d.offset }

func (d *Dispatcher) transition(to State, cause error) {
	from := d.state
	if from == to {
		return
	}
	d.state = to
	if cause != nil {
		d.cause = cause
	}
	d.log.Debug("dispatcher state", "from", from, "to", to)
	d.recorder.RecordTransition(from, to, cause)
}

// Initialize loads tl and moves to Ready. A nil or empty timeline, or a
// dispatcher with no channels, moves to Disabled and returns the cause.
func (d *Dispatcher) Initialize(tl *timeline.Timeline) error {
	if d.state != Uninitialized {
		return &StateError{Op: "initialize", State: d.state}
	}
	return d.accept(tl, nil)
}

// InitializeAsync moves to Loading. The result of p is picked up by the
// first Tick after it resolves.
func (d *Dispatcher) InitializeAsync(p *timeline.Pending) error {
	if d.state != Uninitialized {
		return &StateError{Op: "initialize", State: d.state}
	}
	d.pending = p
	d.transition(Loading, nil)
	return nil
}

// Poll picks up a finished asynchronous load. It returns true once the
// dispatcher has left Loading.
func (d *Dispatcher) Poll() bool {
	if d.state != Loading {
		return true
	}
	select {
	case <-d.pending.Done():
	default:
		return false
	}
	tl, err := d.pending.Result()
	d.pending = nil
	if err := d.accept(tl, err); err != nil {
		d.log.Error("timeline load failed", "error", err)
	}
	return true
}

func (d *Dispatcher) accept(tl *timeline.Timeline, err error) error {
	if err == nil && tl.Len() == 0 {
		err = &timeline.LoadError{Code: timeline.ErrCodeNoEntries, Message: "timeline has no entries"}
	}
	if err == nil && d.set.Len() == 0 {
		err = ErrNoChannels
	}
	if err != nil {
		d.transition(Disabled, err)
		return err
	}

	d.tl = tl
	d.cursor = 0
	d.transition(Ready, nil)
	d.log.Info("timeline ready", "source", tl.Source(), "entries", tl.Len(), "duration", tl.Duration())
	return nil
}

// Tick dispatches every cue due at playback time t and returns how many
// were sent. Nothing happens unless the dispatcher is Ready or Dispatching
// and playing is true.
func (d *Dispatcher) Tick(t float64, playing bool) int {
	if d.state == Loading {
		d.Poll()
	}
	if !playing || (d.state != Ready && d.state != Dispatching) {
		return 0
	}
	d.transition(Dispatching, nil)

	deadline := t + d.offset
	n := 0
	for d.cursor < d.tl.Len() {
		cue := d.tl.At(d.cursor)
		if cue.Time > deadline {
			break
		}
		rec := Record{
			Seq:      d.seq.Next(),
			Index:    d.cursor,
			Cue:      cue,
			Playback: t,
			Deadline: deadline,
			Results:  d.set.Dispatch(cue.Duty),
		}
		d.cursor++
		n++
		d.recorder.RecordDispatch(rec)
	}

	d.set.Tick()
	return n
}

// Seek moves the cursor to the first cue at or after seconds. Earlier cues
// are skipped and will not be dispatched unless a later Seek moves back.
func (d *Dispatcher) Seek(seconds float64) error {
	if d.state != Ready && d.state != Dispatching {
		return &StateError{Op: "seek", State: d.state}
	}
	from := d.cursor
	d.cursor = d.tl.SeekIndex(seconds)
	d.log.Debug("seek", "time", seconds, "from", from, "to", d.cursor)
	return nil
}

// Shutdown stops audio, sends all-off through every channel and releases
// them, in that order. Failures are logged and never stop the sequence.
// Safe to call more than once; the dispatcher ends Disabled.
func (d *Dispatcher) Shutdown() {
	if !d.closed && d.set != nil {
		d.closed = true
		d.set.Stop()
		d.set.Silence()
		if err := d.set.Close(); err != nil {
			d.log.Warn("close channels", "error", err)
		}
	}
	d.transition(Disabled, nil)
}
