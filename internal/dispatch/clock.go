package dispatch

import "sync/atomic"

// Seq is a monotonic counter stamped on every dispatched cue.
//
// Unlike cue indices, which restart after a seek backwards, sequence
// numbers never repeat within a session, so a journal ordered by seq is
// ordered by dispatch time.
type Seq struct {
	n atomic.Int64
}

// NewSeqAt returns a counter whose next value is start+1. Used to continue
// numbering in an existing journal.
func NewSeqAt(start int64) *Seq {
	s := &Seq{}
	s.n.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Seq) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last number handed out.
func (s *Seq) Current() int64 {
	return s.n.Load()
}
