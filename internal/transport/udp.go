package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

// DefaultSendTimeout bounds a single datagram write.
const DefaultSendTimeout = 500 * time.Millisecond

// UDPConfig describes a network actuator endpoint.
type UDPConfig struct {
	Address     string
	Port        int
	SendTimeout time.Duration

	// Legacy selects the single-channel wire format: the duty alone, with
	// the motor index ignored.
	Legacy bool
}

// UDPSink sends commands as one datagram each over an unconnected socket.
type UDPSink struct {
	conn    *net.UDPConn
	addr    *net.UDPAddr
	timeout time.Duration
	legacy  bool
	name    string
}

// DialUDP validates cfg and opens a local socket for sending to it. The
// address must be a literal IP. Failures are KindConfig errors.
func DialUDP(cfg UDPConfig) (*UDPSink, error) {
	name := fmt.Sprintf("udp %s:%d", cfg.Address, cfg.Port)

	ip := net.ParseIP(cfg.Address)
	if ip == nil {
		return nil, &Error{Kind: KindConfig, Channel: name, Op: "open", Err: fmt.Errorf("invalid IP address %q", cfg.Address)}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, &Error{Kind: KindConfig, Channel: name, Op: "open", Err: fmt.Errorf("invalid port %d", cfg.Port)}
	}

	network := "udp6"
	if ip.To4() != nil {
		network = "udp4"
	}

	conn, err := net.ListenUDP(network, nil)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Channel: name, Op: "open", Err: err}
	}

	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}

	return &UDPSink{
		conn:    conn,
		addr:    &net.UDPAddr{IP: ip, Port: cfg.Port},
		timeout: timeout,
		legacy:  cfg.Legacy,
		name:    name,
	}, nil
}

// Name identifies the endpoint in logs.
func (s *UDPSink) Name() string { return s.name }

// Legacy reports whether the sink uses the single-channel format.
func (s *UDPSink) Legacy() bool { return s.legacy }

// Send implements Sink.
func (s *UDPSink) Send(motor, d int) error {
	if s.legacy {
		return s.SendText(FormatLegacy(d))
	}
	return s.SendText(FormatMotor(motor, d))
}

// SendText writes msg as a single datagram.
func (s *UDPSink) SendText(msg string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return transportErr(s.name, err)
	}
	if _, err := s.conn.WriteToUDP([]byte(msg), s.addr); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return transportErr(s.name, fmt.Errorf("%w: %v", ErrTimeout, err))
		}
		return transportErr(s.name, err)
	}
	return nil
}

// Ping sends the handshake count times, interval apart. Failures are logged
// and counted but never fatal; UDP gives no delivery guarantee anyway.
func (s *UDPSink) Ping(ctx context.Context, count int, interval time.Duration, log *slog.Logger) (failed int) {
	for i := 0; i < count; i++ {
		if err := s.SendText(Handshake); err != nil {
			failed++
			log.Warn("handshake failed", "channel", s.name, "attempt", i+1, "error", err)
		}
		if i == count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return failed
		case <-time.After(interval):
		}
	}
	return failed
}

// Close releases the socket.
func (s *UDPSink) Close() error {
	return s.conn.Close()
}
