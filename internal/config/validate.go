package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/roach88/hapsync/internal/duty"
	"github.com/roach88/hapsync/internal/transport"
)

// Error is one invalid setting.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every setting. The returned error is a transport error of
// KindConfig joining one *Error per invalid field.
func (c Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &Error{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.PreSendOffset < 0 {
		bad("pre_send_offset", "must not be negative, got %s", c.PreSendOffset)
	}
	if c.TickRate <= 0 {
		bad("tick_rate", "must be positive, got %d", c.TickRate)
	}
	if !c.Strength.Range().Valid() {
		bad("strength", "need 0 <= min <= max <= %d, got %d..%d", duty.MaxRaw, c.Strength.Min, c.Strength.Max)
	}

	motorsUsed := c.Serial.Enabled || (c.Network.Enabled && !c.Network.Legacy)
	if motorsUsed && len(c.Motors) == 0 {
		bad("motors", "at least one motor is required")
	}
	for _, m := range c.Motors {
		if m < 0 {
			bad("motors", "index must not be negative, got %d", m)
		}
	}

	if !c.Network.Enabled && !c.Serial.Enabled && !c.Audio.Enabled {
		bad("channels", "enable at least one of network, serial or audio")
	}

	if n := c.Network; n.Enabled {
		if net.ParseIP(n.Address) == nil {
			bad("network.address", "not an IP address: %q", n.Address)
		}
		if n.Port < 1 || n.Port > 65535 {
			bad("network.port", "out of range: %d", n.Port)
		}
		if n.Redundancy < 1 {
			bad("network.redundancy", "must be at least 1, got %d", n.Redundancy)
		}
		if n.SendTimeout <= 0 {
			bad("network.send_timeout", "must be positive")
		}
		if n.PingCount < 0 {
			bad("network.ping_count", "must not be negative")
		}
	}

	if s := c.Serial; s.Enabled {
		if s.Port == "" {
			bad("serial.port", "required when serial is enabled")
		}
		if s.Baud <= 0 {
			bad("serial.baud", "must be positive, got %d", s.Baud)
		}
	}

	if a := c.Audio; a.Enabled {
		if a.Frequency <= 0 {
			bad("audio.frequency", "must be positive")
		}
		if a.SampleRate <= 0 {
			bad("audio.sample_rate", "must be positive")
		}
		if a.Channels < 1 || a.Channels > 8 {
			bad("audio.channels", "need 1..8, got %d", a.Channels)
		}
		if a.Waveform < 0 || a.Waveform > 1 {
			bad("audio.waveform", "need 0..1, got %g", a.Waveform)
		}
		if a.MaxVolume < 0 || a.MaxVolume > 1 {
			bad("audio.max_volume", "need 0..1, got %g", a.MaxVolume)
		}
		if a.Boost <= 0 {
			bad("audio.boost", "must be positive")
		}
		if a.Smoothing < 0 || a.Smoothing >= 1 {
			bad("audio.smoothing", "need 0 <= smoothing < 1, got %g", a.Smoothing)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &transport.Error{Kind: transport.KindConfig, Op: "validate", Err: errors.Join(errs...)}
}

// FieldErrors returns the individual *Error values inside err.
func FieldErrors(err error) []*Error {
	var out []*Error
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*Error); ok {
			out = append(out, fe)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}
