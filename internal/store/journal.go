package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/hapsync/internal/dispatch"
	"github.com/roach88/hapsync/internal/transport"
)

// entry is one queued write: exactly one field is set.
type entry struct {
	dispatch *Dispatch
	event    *ChannelEvent
}

// Journal records one session. It implements dispatch.Recorder and its
// RecordEscalation method fits transport.EscalationFunc.
//
// Thread-safety: Record* may be called from any goroutine; writes happen on
// the journal's own goroutine in the order they were recorded.
type Journal struct {
	store   *Store
	session Session
	log     *slog.Logger
	now     func() time.Time

	q        *queue[entry]
	done     chan struct{}
	lastSeq  atomic.Int64
	count    atomic.Int64
	state    atomic.Value // string
	errMu    sync.Mutex
	writeErr error
	closing  sync.Once
	closeErr error
}

// JournalOption configures a Journal.
type JournalOption func(*Journal)

// WithJournalLogger sets the logger for write failures.
func WithJournalLogger(log *slog.Logger) JournalOption {
	return func(j *Journal) { j.log = log }
}

// WithClock replaces the wall clock used for session timestamps.
func WithClock(now func() time.Time) JournalOption {
	return func(j *Journal) { j.now = now }
}

// Begin writes the session row and starts the writer. An empty ID gets a
// new UUIDv7.
func (s *Store) Begin(ctx context.Context, sess Session, opts ...JournalOption) (*Journal, error) {
	j := &Journal{
		store: s,
		log:   slog.Default(),
		now:   time.Now,
		q:     newQueue[entry](),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}

	if sess.ID == "" {
		sess.ID = NewSessionID()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = j.now()
	}
	if err := s.WriteSession(ctx, sess); err != nil {
		return nil, err
	}
	j.session = sess
	j.state.Store("")

	go j.run()
	return j, nil
}

// SessionID returns the session being recorded.
func (j *Journal) SessionID() string { return j.session.ID }

// RecordDispatch implements dispatch.Recorder.
func (j *Journal) RecordDispatch(r dispatch.Record) {
	j.lastSeq.Store(r.Seq)
	j.count.Add(1)
	j.enqueue(entry{dispatch: &Dispatch{
		SessionID: j.session.ID,
		Seq:       r.Seq,
		Index:     r.Index,
		Time:      r.Cue.Time,
		Duty:      r.Cue.Duty,
		Playback:  r.Playback,
		Failed:    r.Failed(),
	}})
}

// RecordTransition implements dispatch.Recorder.
func (j *Journal) RecordTransition(from, to dispatch.State, cause error) {
	j.state.Store(to.String())
	detail := from.String() + " -> " + to.String()
	if cause != nil {
		detail += ": " + cause.Error()
	}
	j.enqueue(entry{event: &ChannelEvent{
		SessionID: j.session.ID,
		Seq:       j.lastSeq.Load(),
		Channel:   "dispatcher",
		Kind:      EventState,
		Detail:    detail,
	}})
}

// RecordEscalation records a channel escalation.
func (j *Journal) RecordEscalation(channel string, st transport.ChannelState, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	j.enqueue(entry{event: &ChannelEvent{
		SessionID:   j.session.ID,
		Seq:         j.lastSeq.Load(),
		Channel:     channel,
		Kind:        EventEscalated,
		Consecutive: st.ConsecutiveErrors,
		Detail:      detail,
	}})
}

func (j *Journal) enqueue(e entry) {
	if !j.q.Enqueue(e) {
		j.log.Debug("journal closed, record dropped")
	}
}

func (j *Journal) run() {
	defer close(j.done)
	ctx := context.Background()

	for {
		e, ok := j.q.TryDequeue()
		if ok {
			j.write(ctx, e)
			continue
		}
		if _, open := <-j.q.Wait(); !open {
			// drain whatever arrived before Close
			for {
				e, ok := j.q.TryDequeue()
				if !ok {
					return
				}
				j.write(ctx, e)
			}
		}
	}
}

func (j *Journal) write(ctx context.Context, e entry) {
	var err error
	switch {
	case e.dispatch != nil:
		err = j.store.WriteDispatch(ctx, *e.dispatch)
	case e.event != nil:
		err = j.store.WriteEvent(ctx, *e.event)
	}
	if err != nil {
		j.log.Error("journal write failed", "session", j.session.ID, "error", err)
		j.errMu.Lock()
		if j.writeErr == nil {
			j.writeErr = err
		}
		j.errMu.Unlock()
	}
}

// Close drains pending writes and stamps the session end. It returns the
// first write error, if any. Safe to call more than once.
func (j *Journal) Close() error {
	j.closing.Do(func() {
		j.q.Close()
		<-j.done

		state, _ := j.state.Load().(string)
		endErr := j.store.EndSession(context.Background(), j.session.ID, j.now(), int(j.count.Load()), state)

		j.errMu.Lock()
		defer j.errMu.Unlock()
		if j.writeErr != nil {
			j.closeErr = fmt.Errorf("journal %s: %w", j.session.ID, errors.Join(j.writeErr, endErr))
		} else if endErr != nil {
			j.closeErr = endErr
		}
	})
	return j.closeErr
}
