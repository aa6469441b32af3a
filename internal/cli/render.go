package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hapsync/internal/render"
	"github.com/roach88/hapsync/internal/timeline"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Output string
	Tail   time.Duration
}

// RenderResult describes a written WAV file.
type RenderResult struct {
	Output     string  `json:"output"`
	Seconds    float64 `json:"seconds"`
	Frames     int     `json:"frames"`
	Dispatched int     `json:"dispatched"`
	Peak       float64 `json:"peak"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <timeline>",
		Short: "Render the audio vibration track to a WAV file",
		Long: `Render the audio channel offline.

The dispatcher runs against a simulated clock at the configured tick rate
and the synthesized tone is written as 16-bit PCM, so the track can be
muxed into the video or inspected in an editor. Audio settings come from
the configuration; the audio channel need not be enabled.

Example:
  hapsync render timeline.json -o vibration.wav`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "vibration.wav", "output WAV file")
	cmd.Flags().DurationVar(&opts.Tail, "tail", time.Second, "audio rendered after the last cue")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	tl, err := timeline.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid timeline", err)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	defer f.Close()

	sum, err := render.WAV(f, tl, render.Options{
		Audio:    cfg.Audio.Synth(),
		Offset:   cfg.OffsetSeconds(),
		TickRate: cfg.TickRate,
		Tail:     opts.Tail.Seconds(),
		Logger:   slog.Default(),
	})
	if err != nil {
		return WrapExitError(ExitFailure, "render failed", err)
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	result := RenderResult{
		Output:     opts.Output,
		Seconds:    sum.Seconds,
		Frames:     sum.Frames,
		Dispatched: sum.Dispatched,
		Peak:       sum.Peak,
	}
	formatter := opts.formatter(cmd)
	if formatter.JSON() {
		return formatter.Success(result)
	}
	printer.Fprintf(cmd.OutOrStdout(), "Wrote %s: %.2fs, %d frames, %d cues, peak %.2f\n",
		result.Output, result.Seconds, result.Frames, result.Dispatched, result.Peak)
	return nil
}
