package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hapsync/internal/transport"
)

// PingOptions holds flags for the ping command.
type PingOptions struct {
	*RootOptions
	Count    int
	Interval time.Duration
}

// NewPingCommand creates the ping command.
func NewPingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Send numbered PING datagrams to the network receiver",
		Long: `Send "PING <n>" datagrams to the configured network address.

Useful to check that the receiver is on the network and listening before a
play-through. With --count 0 pings continue until interrupted.

Example:
  hapsync ping --count 10 --interval 500ms`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 5, "number of pings; 0 runs until interrupted")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Second, "time between pings")

	return cmd
}

func runPing(opts *PingOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	udp, err := transport.DialUDP(cfg.Network.UDP())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open socket", err)
	}
	defer udp.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	sent, failed := 0, 0
loop:
	for n := 1; opts.Count == 0 || n <= opts.Count; n++ {
		msg := fmt.Sprintf("%s %d", transport.Handshake, n)
		if err := udp.SendText(msg); err != nil {
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", msg, err)
		} else {
			sent++
			fmt.Fprintf(w, "→ %s to %s\n", msg, udp.Name())
		}

		if n == opts.Count {
			break
		}
		select {
		case <-ctx.Done():
			break loop
		case <-time.After(opts.Interval):
		}
	}

	printer.Fprintf(w, "%d sent, %d failed\n", sent, failed)
	if sent == 0 {
		return NewExitError(ExitFailure, "no ping could be sent")
	}
	return nil
}
