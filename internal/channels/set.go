package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/hapsync/internal/audio"
	"github.com/roach88/hapsync/internal/config"
	"github.com/roach88/hapsync/internal/transport"
)

// ErrNoChannels is returned by Open when every configured channel failed.
var ErrNoChannels = errors.New("no channel could be opened")

// Result is the outcome of one channel's dispatch.
type Result struct {
	Channel string
	Err     error
}

// Set is the group of channels a dispatcher fans out to.
type Set struct {
	chans    []Channel
	failures []error
	log      *slog.Logger
}

// NewSet groups chans. Fan-out follows the given order.
func NewSet(log *slog.Logger, chans ...Channel) *Set {
	if log == nil {
		log = slog.Default()
	}
	return &Set{chans: chans, log: log}
}

// Len returns the number of open channels.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.chans)
}

// Channels returns the open channels.
func (s *Set) Channels() []Channel { return s.chans }

// Failures returns the connection errors of channels left out by Open.
func (s *Set) Failures() []error { return s.failures }

// Names returns channel names in fan-out order.
func (s *Set) Names() []string {
	names := make([]string, len(s.chans))
	for i, c := range s.chans {
		names[i] = c.Name()
	}
	return names
}

// Dispatch hands raw to every channel. A failing channel never stops the
// others.
func (s *Set) Dispatch(raw int) []Result {
	results := make([]Result, len(s.chans))
	for i, c := range s.chans {
		results[i] = Result{Channel: c.Name(), Err: c.Dispatch(raw)}
	}
	return results
}

// Tick advances per-tick channel state.
func (s *Set) Tick() {
	for _, c := range s.chans {
		if t, ok := c.(Ticker); ok {
			t.Tick()
		}
	}
}

// Stop halts generators.
func (s *Set) Stop() {
	for _, c := range s.chans {
		if st, ok := c.(Stopper); ok {
			st.Stop()
		}
	}
}

// Silence sends all-off to every channel, logging failures.
func (s *Set) Silence() {
	for _, c := range s.chans {
		if err := c.Silence(); err != nil {
			s.log.Warn("silence failed", "channel", c.Name(), "error", err)
		}
	}
}

// Close releases every channel and returns the joined errors.
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.chans {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// OutputFactory opens a device player for a synth.
type OutputFactory func(s *audio.Synth, sampleRate, channels int) (Player, error)

type openOptions struct {
	log        *slog.Logger
	opener     transport.Opener
	dialUDP    func(transport.UDPConfig) (*transport.UDPSink, error)
	output     OutputFactory
	onEscalate transport.EscalationFunc
}

// Option configures Open.
type Option func(*openOptions)

// WithLogger sets the logger for the set and its channels.
func WithLogger(log *slog.Logger) Option {
	return func(o *openOptions) { o.log = log }
}

// WithSerialOpener replaces the serial device opener.
func WithSerialOpener(open transport.Opener) Option {
	return func(o *openOptions) { o.opener = open }
}

// WithUDPDialer replaces the network sink constructor.
func WithUDPDialer(dial func(transport.UDPConfig) (*transport.UDPSink, error)) Option {
	return func(o *openOptions) { o.dialUDP = dial }
}

// WithOutput replaces the audio device factory.
func WithOutput(f OutputFactory) Option {
	return func(o *openOptions) { o.output = f }
}

// WithEscalation is called when any motor channel escalates.
func WithEscalation(fn transport.EscalationFunc) Option {
	return func(o *openOptions) { o.onEscalate = fn }
}

func deviceOutput(s *audio.Synth, sampleRate, channels int) (Player, error) {
	out, err := audio.NewOutput(s, sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Open validates cfg and opens every enabled channel.
//
// A configuration error is returned before anything is sent. A channel that
// cannot connect is logged and skipped; if none remain the error wraps
// ErrNoChannels and every failure.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Set, error) {
	o := openOptions{
		log:    slog.Default(),
		opener:  transport.OpenTerm,
		dialUDP: transport.DialUDP,
		output:  deviceOutput,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set := NewSet(o.log)
	relOpts := func(name string) []transport.ReliableOption {
		return []transport.ReliableOption{
			transport.WithChannelName(name),
			transport.WithLogger(o.log),
			transport.WithPacketLog(cfg.LogPackets),
			transport.WithEscalation(o.onEscalate),
		}
	}

	if n := cfg.Network; n.Enabled {
		udp, err := o.dialUDP(n.UDP())
		switch {
		case transport.IsConfig(err):
			set.Close()
			return nil, err
		case err != nil:
			o.log.Error("network channel disabled", "error", err)
			set.failures = append(set.failures, err)
		default:
			if failed := udp.Ping(ctx, n.PingCount, n.PingInterval, o.log); failed > 0 {
				o.log.Warn("handshake incomplete", "channel", udp.Name(), "failed", failed, "sent", n.PingCount)
			}

			if n.Legacy {
				set.chans = append(set.chans, NewLegacyChannel(transport.NewReliable(udp, 1, relOpts(udp.Name())...)))
			} else {
				rel := transport.NewReliable(udp, n.Redundancy, relOpts(udp.Name())...)
				set.chans = append(set.chans, NewMotorChannel(rel, cfg.Motors, cfg.Strength.Range()))
			}
			o.log.Info("channel open", "channel", udp.Name(), "legacy", n.Legacy, "redundancy", n.Redundancy)
		}
	}

	if s := cfg.Serial; s.Enabled {
		ser, err := transport.OpenSerial(ctx, s.Transport(), o.opener, o.log)
		switch {
		case transport.IsConfig(err):
			set.Close()
			return nil, err
		case err != nil:
			o.log.Error("serial channel disabled", "error", err)
			set.failures = append(set.failures, err)
		default:
			rel := transport.NewReliable(ser, 1, relOpts(ser.Name())...)
			set.chans = append(set.chans, NewMotorChannel(rel, cfg.Motors, cfg.Strength.Range()))
			o.log.Info("channel open", "channel", ser.Name())
		}
	}

	if a := cfg.Audio; a.Enabled {
		ac := a.Synth()
		synth := audio.NewSynth(ac)
		player, err := o.output(synth, ac.SampleRate, ac.Channels)
		if err != nil {
			err = &transport.Error{Kind: transport.KindConnection, Channel: "audio", Op: "open", Err: err}
			o.log.Error("audio channel disabled", "error", err)
			set.failures = append(set.failures, err)
		} else {
			set.chans = append(set.chans, NewAudioChannel(ac, synth, player))
			o.log.Info("channel open", "channel", "audio", "frequency", ac.Frequency, "sample_rate", ac.SampleRate)
		}
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoChannels, errors.Join(set.failures...))
	}
	return set, nil
}
