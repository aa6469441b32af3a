//go:build windows

package transport

import "errors"

// OpenTerm is not available on windows.
func OpenTerm(name string, baud int) (Port, error) {
	return nil, errors.New("serial ports are not supported on this platform")
}
