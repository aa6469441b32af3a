package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ListSessions returns every session, newest first. UUIDv7 ids sort by
// creation time.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timeline, entries, offset_sec, channels, started_at, ended_at, dispatched, final_state
		FROM sessions
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess     Session
			channels string
			started  string
			ended    sql.NullString
		)
		if err := rows.Scan(&sess.ID, &sess.Timeline, &sess.Entries, &sess.Offset, &channels,
			&started, &ended, &sess.Dispatched, &sess.FinalState); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if channels != "" {
			sess.Channels = strings.Split(channels, ",")
		}
		sess.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if ended.Valid {
			sess.EndedAt, _ = time.Parse(time.RFC3339Nano, ended.String)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ReadDispatches returns a session's dispatches in seq order.
func (s *Store) ReadDispatches(ctx context.Context, sessionID string) ([]Dispatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, cue_index, cue_time, duty, playback, failed
		FROM dispatches
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read dispatches: %w", err)
	}
	defer rows.Close()

	var out []Dispatch
	for rows.Next() {
		var d Dispatch
		if err := rows.Scan(&d.SessionID, &d.Seq, &d.Index, &d.Time, &d.Duty, &d.Playback, &d.Failed); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ReadEvents returns a session's channel events in seq order.
func (s *Store) ReadEvents(ctx context.Context, sessionID string) ([]ChannelEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, channel, kind, consecutive, detail
		FROM channel_events
		WHERE session_id = ?
		ORDER BY seq ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var out []ChannelEvent
	for rows.Next() {
		var e ChannelEvent
		if err := rows.Scan(&e.SessionID, &e.Seq, &e.Channel, &e.Kind, &e.Consecutive, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
