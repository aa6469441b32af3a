package harness

import (
	"fmt"

	"github.com/roach88/hapsync/internal/transport"
)

// Result contains the outcome of running a scenario.
type Result struct {
	// Pass is true if all assertions passed.
	Pass bool

	// Trace is every line recorded while the scenario ran, in order.
	Trace []string

	// Errors lists failed assertions.
	Errors []string

	// State is the final dispatcher state.
	State string

	// Channels is the final failure bookkeeping per channel.
	Channels map[string]transport.ChannelState
}

// AssertionError describes a failed assertion.
type AssertionError struct {
	Index   int
	Type    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %d (%s): %s", e.Index, e.Type, e.Message)
}
