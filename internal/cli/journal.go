package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hapsync/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// SessionView is one session in journal output.
type SessionView struct {
	ID         string   `json:"id"`
	Timeline   string   `json:"timeline"`
	Entries    int      `json:"entries"`
	Offset     float64  `json:"offset"`
	Channels   []string `json:"channels"`
	StartedAt  string   `json:"started_at"`
	EndedAt    string   `json:"ended_at,omitempty"`
	Dispatched int      `json:"dispatched"`
	FinalState string   `json:"final_state,omitempty"`
}

// DispatchView is one journaled cue.
type DispatchView struct {
	Seq      int64   `json:"seq"`
	Index    int     `json:"index"`
	Time     float64 `json:"time"`
	Duty     int     `json:"duty"`
	Playback float64 `json:"playback"`
	Failed   int     `json:"failed"`
}

// EventView is one escalation or state change.
type EventView struct {
	Seq         int64  `json:"seq"`
	Channel     string `json:"channel"`
	Kind        string `json:"kind"`
	Consecutive int    `json:"consecutive,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// SessionDetail is the full record of one session.
type SessionDetail struct {
	Session    SessionView    `json:"session"`
	Dispatches []DispatchView `json:"dispatches"`
	Events     []EventView    `json:"events"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal [session-id]",
		Short: "Inspect recorded play sessions",
		Long: `List the sessions recorded by "hapsync play --db", newest first, or
show every dispatch and channel event of one session.

Examples:
  hapsync journal --db ./hapsync.db
  hapsync journal --db ./hapsync.db 01926f3e-...
  hapsync journal --db ./hapsync.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "sessions to list; 0 lists all")

	return cmd
}

func runJournal(opts *JournalOptions, args []string, cmd *cobra.Command) error {
	ctx := context.Background()

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	formatter := opts.formatter(cmd)
	if len(args) == 0 {
		if opts.Limit > 0 && len(sessions) > opts.Limit {
			sessions = sessions[:opts.Limit]
		}
		views := make([]SessionView, 0, len(sessions))
		for _, s := range sessions {
			views = append(views, sessionView(s))
		}
		if formatter.JSON() {
			return formatter.Success(map[string]any{"sessions": views})
		}
		outputSessions(cmd, views)
		return nil
	}

	id := args[0]
	var found *store.Session
	for i := range sessions {
		if sessions[i].ID == id {
			found = &sessions[i]
			break
		}
	}
	if found == nil {
		if formatter.JSON() {
			_ = formatter.Error(ErrCodeJournal, "session not found", map[string]string{"id": id})
		}
		return NewExitError(ExitFailure, fmt.Sprintf("session not found: %s", id))
	}

	dispatches, err := st.ReadDispatches(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read dispatches", err)
	}
	events, err := st.ReadEvents(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	detail := SessionDetail{
		Session:    sessionView(*found),
		Dispatches: make([]DispatchView, 0, len(dispatches)),
		Events:     make([]EventView, 0, len(events)),
	}
	for _, d := range dispatches {
		detail.Dispatches = append(detail.Dispatches, DispatchView{
			Seq: d.Seq, Index: d.Index, Time: d.Time, Duty: d.Duty, Playback: d.Playback, Failed: d.Failed,
		})
	}
	for _, e := range events {
		detail.Events = append(detail.Events, EventView{
			Seq: e.Seq, Channel: e.Channel, Kind: e.Kind, Consecutive: e.Consecutive, Detail: e.Detail,
		})
	}

	if formatter.JSON() {
		return formatter.Success(detail)
	}
	outputSessionDetail(cmd, detail)
	return nil
}

func sessionView(s store.Session) SessionView {
	v := SessionView{
		ID:         s.ID,
		Timeline:   s.Timeline,
		Entries:    s.Entries,
		Offset:     s.Offset,
		Channels:   s.Channels,
		StartedAt:  s.StartedAt.Format(time.RFC3339),
		Dispatched: s.Dispatched,
		FinalState: s.FinalState,
	}
	if !s.EndedAt.IsZero() {
		v.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	if v.Channels == nil {
		v.Channels = []string{}
	}
	return v
}

func outputSessions(cmd *cobra.Command, sessions []SessionView) {
	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	for _, s := range sessions {
		state := s.FinalState
		if s.EndedAt == "" {
			state = "running"
		}
		printer.Fprintf(w, "%s  %s  %s  %d/%d cues  [%s]  %s\n",
			s.ID, s.StartedAt, s.Timeline, s.Dispatched, s.Entries, strings.Join(s.Channels, ","), state)
	}
}

func outputSessionDetail(cmd *cobra.Command, d SessionDetail) {
	w := cmd.OutOrStdout()
	s := d.Session
	fmt.Fprintf(w, "Session:  %s\n", s.ID)
	fmt.Fprintf(w, "Timeline: %s (%d entries, offset %.3fs)\n", s.Timeline, s.Entries, s.Offset)
	fmt.Fprintf(w, "Channels: %s\n", strings.Join(s.Channels, ", "))
	fmt.Fprintf(w, "Started:  %s\n", s.StartedAt)
	if s.EndedAt != "" {
		fmt.Fprintf(w, "Ended:    %s (%s)\n", s.EndedAt, s.FinalState)
	}
	fmt.Fprintln(w)

	failed := 0
	for _, x := range d.Dispatches {
		mark := " "
		if x.Failed > 0 {
			mark = "!"
			failed++
		}
		fmt.Fprintf(w, "%s #%-5d cue %-5d t=%8.3f duty=%3d at %8.3f\n", mark, x.Seq, x.Index, x.Time, x.Duty, x.Playback)
	}
	for _, e := range d.Events {
		fmt.Fprintf(w, "  [%s] %s after #%d", e.Kind, e.Channel, e.Seq)
		if e.Consecutive > 0 {
			fmt.Fprintf(w, " (%d consecutive)", e.Consecutive)
		}
		if e.Detail != "" {
			fmt.Fprintf(w, ": %s", e.Detail)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	printer.Fprintf(w, "%d dispatches, %d with failures, %d events\n", len(d.Dispatches), failed, len(d.Events))
}
