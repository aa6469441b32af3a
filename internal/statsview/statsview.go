//go:build statsview

package statsview

import (
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is where the server listens.
const DefaultAddress = "localhost:12600"

const path = "/debug/statsview"

// Launch starts the stats server in a new goroutine and stops it when ctx
// is done.
func Launch(ctx context.Context, addr string, output io.Writer) {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()

	go mgr.Start()
	go func() {
		<-ctx.Done()
		mgr.Stop()
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n", addr, path)
}

// Available reports whether the stats server is compiled in.
func Available() bool {
	return true
}
