//go:build !windows

package transport

import "github.com/pkg/term"

// OpenTerm opens a serial device in raw mode at baud.
func OpenTerm(name string, baud int) (Port, error) {
	t, err := term.Open(name, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, err
	}
	return t, nil
}
