package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hapsync/internal/audio"
	"github.com/roach88/hapsync/internal/channels"
)

// ToneOptions holds flags for the tone command.
type ToneOptions struct {
	*RootOptions
	Frequency float64
	Volume    float64
	Waveform  float64
	Duration  time.Duration

	// Output opens the device. Defaults to the audio device.
	Output channels.OutputFactory
}

// NewToneCommand creates the tone command.
func NewToneCommand(rootOpts *RootOptions) *cobra.Command {
	return newToneCommand(rootOpts, nil)
}

func newToneCommand(rootOpts *RootOptions, output channels.OutputFactory) *cobra.Command {
	opts := &ToneOptions{RootOptions: rootOpts, Output: output}

	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Play a steady test tone on the speaker",
		Long: `Play the vibration tone at a fixed volume.

Frequency and waveform default to the configured audio settings. Use it to
find a frequency the speaker or transducer reproduces well.

Example:
  hapsync tone --frequency 20 --volume 0.8 --duration 10s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTone(opts, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Frequency, "frequency", 0, "tone frequency in Hz (default from config)")
	cmd.Flags().Float64Var(&opts.Volume, "volume", 1, "volume 0..1")
	cmd.Flags().Float64Var(&opts.Waveform, "waveform", -1, "shape 0 square .. 0.5 triangle .. 1 sine (default from config)")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 5*time.Second, "how long to play")

	return cmd
}

func runTone(opts *ToneOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	ac := cfg.Audio.Synth()
	if opts.Frequency > 0 {
		ac.Frequency = opts.Frequency
	}
	if opts.Waveform >= 0 {
		ac.Waveform = opts.Waveform
	}
	if opts.Volume < 0 || opts.Volume > 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("volume must be in 0..1, got %g", opts.Volume))
	}

	open := opts.Output
	if open == nil {
		open = func(s *audio.Synth, sampleRate, n int) (channels.Player, error) {
			return audio.NewOutput(s, sampleRate, n)
		}
	}

	synth := audio.NewSynth(ac)
	synth.SetVolume(opts.Volume)
	player, err := open(synth, ac.SampleRate, ac.Channels)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open audio device", err)
	}
	defer player.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Playing %g Hz (waveform %g) at volume %g for %s\n",
		ac.Frequency, ac.Waveform, opts.Volume, opts.Duration)
	player.Start()
	select {
	case <-ctx.Done():
	case <-time.After(opts.Duration):
	}
	player.Stop()
	return nil
}
