package testutil

import (
	"errors"
	"sync"

	"github.com/roach88/hapsync/internal/transport"
)

// ErrInjected is the failure returned by a RecordingSink told to fail.
var ErrInjected = errors.New("injected send failure")

// Trace is an ordered log of wire commands shared by several sinks, so the
// interleaving across channels is preserved.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Trace struct {
	mu    sync.Mutex
	lines []string
}

// Add appends one line.
func (t *Trace) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
}

// Lines returns a copy of the recorded lines.
func (t *Trace) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// Reset discards every line.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = nil
}

// RecordingSink is a transport.Sink that records what it would have put on
// the wire.
//
// Successful sends are appended to Trace as "<name> <command>". Failed sends
// are recorded as "<name> <command> !fail" so tests can see attempts that
// never reached the device.
type RecordingSink struct {
	name   string
	trace  *Trace
	legacy bool

	mu       sync.Mutex
	sent     []string
	attempts int
	failNext int
	failAll  bool
	closed   bool
}

// NewRecordingSink records into trace, which may be shared. A nil trace
// gets a private one.
func NewRecordingSink(name string, trace *Trace) *RecordingSink {
	if trace == nil {
		trace = &Trace{}
	}
	return &RecordingSink{name: name, trace: trace}
}

// NewLegacySink records the single-channel format.
func NewLegacySink(name string, trace *Trace) *RecordingSink {
	s := NewRecordingSink(name, trace)
	s.legacy = true
	return s
}

// Name returns the sink name.
func (s *RecordingSink) Name() string { return s.name }

// Legacy reports whether the single-channel format is recorded.
func (s *RecordingSink) Legacy() bool { return s.legacy }

// Send implements transport.Sink.
func (s *RecordingSink) Send(motor, d int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := transport.FormatMotor(motor, d)
	if s.legacy {
		cmd = transport.FormatLegacy(d)
	}

	s.attempts++
	if s.failAll || s.failNext > 0 {
		if s.failNext > 0 {
			s.failNext--
		}
		s.trace.Add(s.name + " " + cmd + " !fail")
		return &transport.Error{Kind: transport.KindTransport, Channel: s.name, Op: "send", Err: ErrInjected}
	}

	s.sent = append(s.sent, cmd)
	s.trace.Add(s.name + " " + cmd)
	return nil
}

// FailNext makes the next n sends fail.
func (s *RecordingSink) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// SetDown makes every send fail until cleared.
func (s *RecordingSink) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = down
}

// Sent returns the successfully sent commands.
func (s *RecordingSink) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// Attempts returns the number of Send calls, successful or not.
func (s *RecordingSink) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Close implements transport.Sink.
func (s *RecordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.trace.Add(s.name + " close")
	return nil
}

// Closed reports whether Close was called.
func (s *RecordingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
