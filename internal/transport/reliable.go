package transport

import (
	"log/slog"
)

// Failure policy thresholds.
const (
	// WarnEvery limits warnings to the 1st failure and every WarnEvery-th.
	WarnEvery = 50

	// EscalateAfter is the consecutive failure count that raises the
	// escalation.
	EscalateAfter = 10
)

// ChannelState is the failure bookkeeping of one channel.
type ChannelState struct {
	ConsecutiveErrors int
	Escalated         bool
}

// Stats are lifetime counters for a channel.
type Stats struct {
	Attempts    int
	Failures    int
	Escalations int
}

// EscalationFunc is called once each time a channel escalates.
type EscalationFunc func(channel string, state ChannelState, err error)

// Reliable applies redundancy and the failure policy to a Sink. It is not
// safe for concurrent use; all sends happen on the dispatch goroutine.
type Reliable struct {
	sink       Sink
	name       string
	redundancy int
	log        *slog.Logger
	logPackets bool
	onEscalate EscalationFunc

	state ChannelState
	stats Stats
}

// ReliableOption configures a Reliable.
type ReliableOption func(*Reliable)

// WithChannelName sets the name used in logs and escalations.
func WithChannelName(name string) ReliableOption {
	return func(r *Reliable) { r.name = name }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) ReliableOption {
	return func(r *Reliable) { r.log = log }
}

// WithPacketLog logs every delivered command at debug level.
func WithPacketLog(on bool) ReliableOption {
	return func(r *Reliable) { r.logPackets = on }
}

// WithEscalation registers fn to be told about escalations.
func WithEscalation(fn EscalationFunc) ReliableOption {
	return func(r *Reliable) { r.onEscalate = fn }
}

// NewReliable wraps sink. A redundancy below 1 is treated as 1.
func NewReliable(sink Sink, redundancy int, opts ...ReliableOption) *Reliable {
	if redundancy < 1 {
		redundancy = 1
	}
	r := &Reliable{
		sink:       sink,
		name:       "channel",
		redundancy: redundancy,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send transmits the command up to redundancy times and stops at the first
// error, which is returned after the policy has accounted for it.
func (r *Reliable) Send(motor, d int) error {
	sent := 0
	var failure error

	for i := 0; i < r.redundancy; i++ {
		r.stats.Attempts++
		if err := r.sink.Send(motor, d); err != nil {
			r.fail(err)
			failure = err
			break
		}
		sent++
		r.state = ChannelState{}
	}

	if r.logPackets && sent > 0 {
		r.log.Debug("sent", "channel", r.name, "command", r.format(motor, d),
			"succeeded", sent, "attempts", r.redundancy)
	}

	return failure
}

func (r *Reliable) format(motor, d int) string {
	if l, ok := r.sink.(interface{ Legacy() bool }); ok && l.Legacy() {
		return FormatLegacy(d)
	}
	return FormatMotor(motor, d)
}

func (r *Reliable) fail(err error) {
	r.stats.Failures++
	r.state.ConsecutiveErrors++
	n := r.state.ConsecutiveErrors

	if n == 1 || n%WarnEvery == 0 {
		r.log.Warn("send failed", "channel", r.name, "error", err, "consecutive", n)
	}

	if n >= EscalateAfter && !r.state.Escalated {
		r.state.Escalated = true
		r.stats.Escalations++
		r.log.Error("channel unreachable",
			"channel", r.name,
			"consecutive", n,
			"check", "device powered and connected; signal strength; restart the device")
		if r.onEscalate != nil {
			r.onEscalate(r.name, r.state, err)
		}
	}
}

// State returns the current failure bookkeeping.
func (r *Reliable) State() ChannelState { return r.state }

// Stats returns lifetime counters.
func (r *Reliable) Stats() Stats { return r.stats }

// Name returns the channel name.
func (r *Reliable) Name() string { return r.name }

// Redundancy returns the number of copies sent per command.
func (r *Reliable) Redundancy() int { return r.redundancy }

// Close closes the wrapped sink.
func (r *Reliable) Close() error {
	return r.sink.Close()
}
