package transport

import (
	"strconv"

	"github.com/roach88/hapsync/internal/duty"
)

// Handshake is sent once when a channel opens.
const Handshake = "PING"

// Sink delivers a duty to one motor of a physical channel.
type Sink interface {
	Send(motor, duty int) error
	Close() error
}

// FormatMotor renders the multi-motor command for motor and duty. The duty
// is clamped to [0,255].
func FormatMotor(motor, d int) string {
	return "M" + strconv.Itoa(motor) + ":" + strconv.Itoa(duty.Clamp(d))
}

// FormatLegacy renders the single-channel command: the clamped duty as an
// ASCII decimal.
func FormatLegacy(d int) string {
	return strconv.Itoa(duty.Clamp(d))
}
