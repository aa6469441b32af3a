package dispatch

import (
	"errors"
	"fmt"
)

// ErrNoChannels disables a dispatcher that has nothing to dispatch to.
var ErrNoChannels = errors.New("dispatcher has no channels")

// StateError is returned when an operation is not allowed in the current
// state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("dispatch: %s not allowed in state %s", e.Op, e.State)
}

// IsStateError reports whether err is a *StateError.
// Uses errors.As to handle wrapped errors.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
