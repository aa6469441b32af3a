package dispatch

import (
	"github.com/roach88/hapsync/internal/channels"
	"github.com/roach88/hapsync/internal/timeline"
)

// Record describes one dispatched cue.
type Record struct {
	Seq      int64
	Index    int
	Cue      timeline.Cue
	Playback float64 // clock position of the tick
	Deadline float64 // Playback plus the pre-send offset
	Results  []channels.Result
}

// Failed returns the number of channels whose delivery failed.
func (r Record) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Recorder observes the dispatcher. Calls are made on the dispatch
// goroutine and must not block.
type Recorder interface {
	RecordDispatch(r Record)
	RecordTransition(from, to State, cause error)
}

type nopRecorder struct{}

func (nopRecorder) RecordDispatch(Record)                {}
func (nopRecorder) RecordTransition(State, State, error) {}

// Recorders fans every call out to each non-nil recorder in order.
func Recorders(rs ...Recorder) Recorder {
	var out multiRecorder
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type multiRecorder []Recorder

func (m multiRecorder) RecordDispatch(r Record) {
	for _, rec := range m {
		rec.RecordDispatch(r)
	}
}

func (m multiRecorder) RecordTransition(from, to State, cause error) {
	for _, rec := range m {
		rec.RecordTransition(from, to, cause)
	}
}
