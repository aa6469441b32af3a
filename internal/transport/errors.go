package transport

import (
	"errors"
	"fmt"
)

// Kind classifies a transport failure.
type Kind int

const (
	// KindTransport is a failed send attempt. Absorbed by Reliable.
	KindTransport Kind = iota + 1

	// KindConnection is a failure to open or handshake a channel. Fatal to
	// that channel only.
	KindConnection

	// KindConfig is an invalid address, port or device setting. Fatal at
	// setup.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindConnection:
		return "connection"
	case KindConfig:
		return "config"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified channel failure.
type Error struct {
	Kind    Kind
	Channel string // e.g. "udp 192.168.1.87:12345" or "serial /dev/ttyUSB0"
	Op      string // "send", "open", "handshake", "close"
	Err     error
}

func (e *Error) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("%s error: %s %s: %v", e.Kind, e.Op, e.Channel, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrTimeout is wrapped by errors caused by an expired send or read
// deadline.
var ErrTimeout = errors.New("timeout")

// ErrClosed is returned by a write on a closed sink.
var ErrClosed = errors.New("sink closed")

func isKind(err error, k Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == k
	}
	return false
}

// IsTransport reports whether err is a recoverable send failure.
func IsTransport(err error) bool { return isKind(err, KindTransport) }

// IsConnection reports whether err is a channel open or handshake failure.
func IsConnection(err error) bool { return isKind(err, KindConnection) }

// IsConfig reports whether err is a setup-time configuration failure.
func IsConfig(err error) bool { return isKind(err, KindConfig) }

func transportErr(channel string, err error) error {
	return &Error{Kind: KindTransport, Channel: channel, Op: "send", Err: err}
}
