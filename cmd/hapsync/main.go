// Command hapsync plays haptic cue timelines in step with video playback.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hapsync/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
