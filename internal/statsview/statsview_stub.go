//go:build !statsview

package statsview

import (
	"context"
	"io"
)

// DefaultAddress is where the server would listen.
const DefaultAddress = "localhost:12600"

// Launch does nothing without the statsview build tag.
func Launch(context.Context, string, io.Writer) {}

// Available reports whether the stats server is compiled in.
func Available() bool {
	return false
}
