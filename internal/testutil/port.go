package testutil

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/roach88/hapsync/internal/transport"
)

// FakePort is an in-memory serial device. Writes are captured; reads
// return the canned reply and then nothing.
type FakePort struct {
	mu      sync.Mutex
	written bytes.Buffer
	reply   *strings.Reader
	closed  bool
}

// NewFakePort answers the first read with reply.
func NewFakePort(reply string) *FakePort {
	return &FakePort{reply: strings.NewReader(reply)}
}

func (p *FakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.written.Write(b)
}

func (p *FakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reply.Read(b)
}

func (p *FakePort) SetReadTimeout(time.Duration) error { return nil }

func (p *FakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Lines returns the newline-separated lines written so far.
func (p *FakePort) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := strings.TrimSuffix(p.written.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Closed reports whether Close was called.
func (p *FakePort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Opener returns a transport.Opener that hands out p.
func (p *FakePort) Opener() transport.Opener {
	return func(string, int) (transport.Port, error) { return p, nil }
}
