package channels

import (
	"github.com/roach88/hapsync/internal/duty"
	"github.com/roach88/hapsync/internal/transport"
)

// Channel is one physical output.
type Channel interface {
	Name() string

	// Dispatch delivers a raw cue duty. Errors are already accounted for by
	// the channel's failure policy and are returned for reporting only.
	Dispatch(raw int) error

	// Silence turns every actuator off, best effort.
	Silence() error

	Close() error
}

// Ticker is implemented by channels with per-tick state.
type Ticker interface {
	Tick()
}

// Stopper is implemented by channels with a generator that must stop before
// the others are silenced.
type Stopper interface {
	Stop()
}

// MotorChannel drives motors over a reliable sink.
type MotorChannel struct {
	rel      *transport.Reliable
	motors   []int
	strength duty.Range
	legacy   bool
}

// NewMotorChannel maps each duty into strength and sends it to every motor.
func NewMotorChannel(rel *transport.Reliable, motors []int, strength duty.Range) *MotorChannel {
	return &MotorChannel{
		rel:      rel,
		motors:   append([]int(nil), motors...),
		strength: strength,
	}
}

// NewLegacyChannel sends the clamped raw duty once per cue with no motor
// index and no mapping.
func NewLegacyChannel(rel *transport.Reliable) *MotorChannel {
	return &MotorChannel{rel: rel, motors: []int{0}, legacy: true}
}

func (c *MotorChannel) Name() string { return c.rel.Name() }

// Dispatch sends to every motor even after one fails, and returns the first
// failure.
func (c *MotorChannel) Dispatch(raw int) error {
	d := duty.Clamp(raw)
	if !c.legacy {
		d = c.strength.Map(raw)
	}

	var first error
	for _, m := range c.motors {
		if err := c.rel.Send(m, d); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Silence sends zero to every motor.
func (c *MotorChannel) Silence() error {
	var first error
	for _, m := range c.motors {
		if err := c.rel.Send(m, 0); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// State returns the failure bookkeeping of the underlying sink.
func (c *MotorChannel) State() transport.ChannelState { return c.rel.State() }

// Stats returns the lifetime counters of the underlying sink.
func (c *MotorChannel) Stats() transport.Stats { return c.rel.Stats() }

func (c *MotorChannel) Close() error { return c.rel.Close() }
