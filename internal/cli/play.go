package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hapsync/internal/channels"
	"github.com/roach88/hapsync/internal/config"
	"github.com/roach88/hapsync/internal/dispatch"
	"github.com/roach88/hapsync/internal/playback"
	"github.com/roach88/hapsync/internal/statsview"
	"github.com/roach88/hapsync/internal/store"
	"github.com/roach88/hapsync/internal/timeline"
	"github.com/roach88/hapsync/internal/transport"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database string
	Stats    bool
	Rate     float64
	Start    float64
	Linger   time.Duration

	// ChannelOptions are passed to channels.Open (for testing).
	ChannelOptions []channels.Option
}

// PlaySummary is the result of a play-through.
type PlaySummary struct {
	Timeline   string   `json:"timeline"`
	Entries    int      `json:"entries"`
	Dispatched int      `json:"dispatched"`
	Failed     int      `json:"failed"`
	Channels   []string `json:"channels"`
	State      string   `json:"state"`
	Session    string   `json:"session,omitempty"`
}

// tally counts dispatches for the summary.
type tally struct {
	dispatched int
	failed     int
}

func (t *tally) RecordDispatch(r dispatch.Record) {
	t.dispatched++
	if r.Failed() > 0 {
		t.failed++
	}
}

func (t *tally) RecordTransition(dispatch.State, dispatch.State, error) {}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play [timeline]",
		Short: "Play a timeline against the configured channels",
		Long: `Play a timeline against every enabled channel.

A simulated playback clock starts at --start and advances in real time
(scaled by --rate). The timeline loads in the background while channels are
opened. A channel that cannot connect is skipped; if none can, play fails.

Exit codes:
  0 - Timeline finished or interrupted
  1 - No channel reachable, or the timeline failed to load
  2 - Command error (invalid configuration, journal not writable)

Examples:
  hapsync play timeline.json
  hapsync play --config rig.yaml --db ./hapsync.db
  hapsync play timeline.json --start 42.5 --rate 2`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session to a SQLite journal")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "serve runtime statistics (statsview build)")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 1, "playback speed")
	cmd.Flags().Float64Var(&opts.Start, "start", 0, "start position in seconds")
	cmd.Flags().DurationVar(&opts.Linger, "linger", time.Second, "keep running this long after the last cue")

	return cmd
}

func runPlay(opts *PlayOptions, args []string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Timeline = args[0]
	}
	if opts.Database != "" {
		cfg.Journal = opts.Database
	}
	if opts.Rate <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("rate must be positive, got %g", opts.Rate))
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := slog.Default()
	pending := timeline.LoadAsync(ctx, timeline.FileLoader{}, cfg.Timeline)

	// The journal begins after channels open; escalations only happen once
	// dispatch starts.
	var journal *store.Journal
	escalate := func(channel string, st transport.ChannelState, err error) {
		if journal != nil {
			journal.RecordEscalation(channel, st, err)
		}
	}

	chanOpts := append([]channels.Option{
		channels.WithLogger(log),
		channels.WithEscalation(escalate),
	}, opts.ChannelOptions...)
	set, err := channels.Open(ctx, cfg, chanOpts...)
	switch {
	case transport.IsConfig(err):
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	case err != nil:
		return WrapExitError(ExitFailure, "no channel available", err)
	}

	select {
	case <-pending.Done():
	case <-ctx.Done():
		set.Close()
		return nil
	}
	tl, loadErr := pending.Result()

	var recorders []dispatch.Recorder
	count := &tally{}
	recorders = append(recorders, count)

	if cfg.Journal != "" {
		st, j, err := beginJournal(ctx, cfg, tl, set)
		if err != nil {
			set.Close()
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		journal = j
		defer func() {
			if err := journal.Close(); err != nil {
				log.Error("journal close", "error", err)
			}
			if err := st.Close(); err != nil {
				log.Error("error closing database", "error", err)
			}
		}()
		recorders = append(recorders, journal)
	}

	d := dispatch.New(
		dispatch.WithPreSendOffset(cfg.OffsetSeconds()),
		dispatch.WithChannels(set),
		dispatch.WithRecorder(dispatch.Recorders(recorders...)),
		dispatch.WithLogger(log),
		dispatch.WithLinger(opts.Linger.Seconds()),
	)
	defer d.Shutdown()

	if err := d.InitializeAsync(timeline.Resolved(tl, loadErr)); err != nil {
		return err
	}
	d.Poll()
	if d.State() == dispatch.Disabled {
		return WrapExitError(ExitFailure, "timeline not playable", d.Err())
	}

	if opts.Stats {
		if statsview.Available() {
			statsview.Launch(ctx, statsview.DefaultAddress, cmd.ErrOrStderr())
		} else {
			log.Warn("statsview not compiled in; rebuild with -tags statsview")
		}
	}

	clock := playback.NewWallClock(playback.WithRate(opts.Rate))
	if opts.Start > 0 {
		clock.Seek(opts.Start)
	}
	clock.Play()

	runErr := d.Run(ctx, clock, cfg.TickInterval())
	d.Shutdown()

	summary := PlaySummary{
		Timeline:   cfg.Timeline,
		Entries:    tl.Len(),
		Dispatched: count.dispatched,
		Failed:     count.failed,
		Channels:   set.Names(),
		State:      d.State().String(),
	}
	if journal != nil {
		summary.Session = journal.SessionID()
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "playback stopped", runErr)
	}

	f := opts.formatter(cmd)
	if f.JSON() {
		return f.Success(summary)
	}
	w := cmd.OutOrStdout()
	printer.Fprintf(w, "Dispatched %d of %d cues to %d channel(s)", summary.Dispatched, summary.Entries, len(summary.Channels))
	if summary.Failed > 0 {
		printer.Fprintf(w, ", %d with failures", summary.Failed)
	}
	fmt.Fprintln(w)
	if summary.Session != "" {
		fmt.Fprintf(w, "Session: %s\n", summary.Session)
	}
	return nil
}

func beginJournal(ctx context.Context, cfg config.Config, tl *timeline.Timeline, set *channels.Set) (*store.Store, *store.Journal, error) {
	st, err := store.Open(cfg.Journal)
	if err != nil {
		return nil, nil, err
	}
	j, err := st.Begin(ctx, store.Session{
		Timeline: cfg.Timeline,
		Entries:  tl.Len(),
		Offset:   cfg.OffsetSeconds(),
		Channels: set.Names(),
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, j, nil
}
