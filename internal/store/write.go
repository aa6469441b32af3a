package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session describes one play-through.
type Session struct {
	ID         string
	Timeline   string
	Entries    int
	Offset     float64
	Channels   []string
	StartedAt  time.Time
	EndedAt    time.Time // zero while running
	Dispatched int
	FinalState string
}

// Dispatch is one journaled cue.
type Dispatch struct {
	SessionID string
	Seq       int64
	Index     int
	Time      float64
	Duty      int
	Playback  float64
	Failed    int
}

// Event kinds.
const (
	EventEscalated = "escalated"
	EventState     = "state"
)

// ChannelEvent is an escalation or a dispatcher state change.
type ChannelEvent struct {
	SessionID   string
	Seq         int64
	Channel     string
	Kind        string
	Consecutive int
	Detail      string
}

// NewSessionID returns a time-sortable UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func NewSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// WriteSession inserts a session row. An existing ID is left untouched.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, timeline, entries, offset_sec, channels, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Timeline,
		sess.Entries,
		sess.Offset,
		strings.Join(sess.Channels, ","),
		sess.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// EndSession stamps the end of a session.
func (s *Store) EndSession(ctx context.Context, id string, ended time.Time, dispatched int, finalState string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, dispatched = ?, final_state = ?
		WHERE id = ?
	`, ended.UTC().Format(time.RFC3339Nano), dispatched, finalState, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// WriteDispatch inserts a dispatch. Uses ON CONFLICT DO NOTHING so a
// (session, seq) pair is written at most once.
func (s *Store) WriteDispatch(ctx context.Context, d Dispatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatches (session_id, seq, cue_index, cue_time, duty, playback, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, d.SessionID, d.Seq, d.Index, d.Time, d.Duty, d.Playback, d.Failed)
	if err != nil {
		return fmt.Errorf("write dispatch: %w", err)
	}
	return nil
}

// WriteEvent inserts a channel event.
func (s *Store) WriteEvent(ctx context.Context, e ChannelEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channel_events (session_id, seq, channel, kind, consecutive, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.Seq, e.Channel, e.Kind, e.Consecutive, e.Detail)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
