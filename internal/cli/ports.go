package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hapsync/internal/transport"
)

// NewPortsCommand creates the ports command.
func NewPortsCommand(rootOpts *RootOptions) *cobra.Command {
	// listPorts is replaced in tests.
	return newPortsCommand(rootOpts, transport.ListSerialPorts)
}

func newPortsCommand(rootOpts *RootOptions, listPorts func() []string) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports that look like motor controllers",
		Long: `List device nodes of USB serial adapters and development boards.

Use one of them as serial.port in the configuration.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports := listPorts()
			formatter := rootOpts.formatter(cmd)
			if formatter.JSON() {
				if ports == nil {
					ports = []string{}
				}
				return formatter.Success(map[string]any{"ports": ports})
			}

			w := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(w, "No serial ports found.")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(w, p)
			}
			return nil
		},
	}
}
