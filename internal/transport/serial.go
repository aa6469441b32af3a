package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Serial defaults.
const (
	DefaultBaud          = 115200
	DefaultSerialTimeout = 500 * time.Millisecond
	DefaultSettle        = 2 * time.Second
)

// Port is an open serial device.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(d time.Duration) error
}

// Opener opens the named serial device at baud.
type Opener func(name string, baud int) (Port, error)

// SerialConfig describes a wired actuator controller.
type SerialConfig struct {
	Port         string
	Baud         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Settle is how long to wait after opening before the handshake. Most
	// boards reset when the port opens.
	Settle time.Duration
}

func (c SerialConfig) withDefaults() SerialConfig {
	if c.Baud <= 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultSerialTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultSerialTimeout
	}
	if c.Settle < 0 {
		c.Settle = 0
	}
	return c
}

// SerialSink writes newline-terminated multi-motor commands to a serial
// device.
type SerialSink struct {
	port Port
	cfg  SerialConfig
	name string

	// unbuffered: a line that timed out waiting never reaches the device
	writes chan writeReq
	quit   chan struct{}
	once   sync.Once
}

type writeReq struct {
	line string
	done chan error
}

func newSerialSink(port Port, cfg SerialConfig, name string) *SerialSink {
	s := &SerialSink{
		port:   port,
		cfg:    cfg,
		name:   name,
		writes: make(chan writeReq),
		quit:   make(chan struct{}),
	}
	go s.writer()
	return s
}

func (s *SerialSink) writer() {
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.writes:
			_, err := io.WriteString(s.port, req.line)
			req.done <- err
		}
	}
}

// OpenSerial opens and handshakes a serial channel.
//
// A failure to open the device, or to write the handshake, is a
// KindConnection error. No reply to the handshake within the read timeout
// is only logged: some firmware does not answer.
func OpenSerial(ctx context.Context, cfg SerialConfig, open Opener, log *slog.Logger) (*SerialSink, error) {
	cfg = cfg.withDefaults()
	name := "serial " + cfg.Port

	if cfg.Port == "" {
		return nil, &Error{Kind: KindConfig, Channel: name, Op: "open", Err: fmt.Errorf("no serial port configured")}
	}

	port, err := open(cfg.Port, cfg.Baud)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Channel: name, Op: "open", Err: err}
	}
	log.Info("serial port opened", "port", cfg.Port, "baud", cfg.Baud)

	s := newSerialSink(port, cfg, name)

	if cfg.Settle > 0 {
		select {
		case <-ctx.Done():
			s.Close()
			return nil, &Error{Kind: KindConnection, Channel: name, Op: "handshake", Err: ctx.Err()}
		case <-time.After(cfg.Settle):
		}
	}

	if err := s.WriteLine(Handshake); err != nil {
		s.Close()
		return nil, &Error{Kind: KindConnection, Channel: name, Op: "handshake", Err: err}
	}

	reply, err := s.ReadLine(cfg.ReadTimeout)
	if err != nil {
		log.Warn("no handshake reply", "channel", name, "error", err)
	} else {
		log.Info("handshake reply", "channel", name, "reply", reply)
	}

	return s, nil
}

// Name identifies the device in logs.
func (s *SerialSink) Name() string { return s.name }

// Send implements Sink.
func (s *SerialSink) Send(motor, d int) error {
	if err := s.WriteLine(FormatMotor(motor, d)); err != nil {
		return transportErr(s.name, err)
	}
	return nil
}

// WriteLine writes line followed by "\n", giving up after the write
// timeout. While an earlier write is stuck in the device, later lines time
// out without being queued.
func (s *SerialSink) WriteLine(line string) error {
	req := writeReq{line: line + "\n", done: make(chan error, 1)}

	t := time.NewTimer(s.cfg.WriteTimeout)
	defer t.Stop()

	select {
	case s.writes <- req:
	case <-s.quit:
		return fmt.Errorf("write %q: %w", line, ErrClosed)
	case <-t.C:
		return fmt.Errorf("write %q: device busy: %w", line, ErrTimeout)
	}

	select {
	case err := <-req.done:
		return err
	case <-t.C:
		return fmt.Errorf("write %q: %w", line, ErrTimeout)
	}
}

// ReadLine reads up to the next "\n", dropping a trailing "\r".
func (s *SerialSink) ReadLine(timeout time.Duration) (string, error) {
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return "", err
	}

	deadline := time.Now().Add(timeout)
	var line strings.Builder
	b := make([]byte, 1)

	for {
		if time.Now().After(deadline) {
			return "", fmt.Errorf("read line: %w", ErrTimeout)
		}
		n, err := s.port.Read(b)
		if n == 1 {
			if b[0] == '\n' {
				return strings.TrimSuffix(line.String(), "\r"), nil
			}
			line.WriteByte(b[0])
			continue
		}
		if err != nil && err != io.EOF {
			return "", err
		}
	}
}

// Close stops the writer and releases the device.
func (s *SerialSink) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		err = s.port.Close()
	})
	return err
}
