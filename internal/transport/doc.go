// Package transport delivers motor commands to physical channels.
//
// Every channel implements Sink, a single capability:
//
//	Send(motor, duty int) error
//
// Three sinks are provided:
//   - UDPSink, multi-motor "M<index>:<duty>" datagrams, or the legacy
//     single-channel form that carries only the ASCII duty.
//   - SerialSink, the same multi-motor commands as newline-terminated lines.
//   - any Sink written by the caller (tests use recording fakes).
//
// Reliable wraps a Sink with the redundancy and failure policy:
//
//   - each command is sent up to N times (N=1 for serial), stopping at the
//     first hard error; redundancy is proactive duplication for lossy links,
//     never a retry loop
//   - a success clears the consecutive error counter and the escalation latch
//   - warnings are logged on the 1st failure and every 50th after that
//   - after 10 consecutive failures a one-time escalation is raised
//
// # Errors
//
// Failures are reported as *Error values classified by Kind:
//
//   - KindConfig: bad address or port, found before anything is sent
//   - KindConnection: a serial port could not be opened or handshaken
//   - KindTransport: a single send attempt failed (timeout, unreachable,
//     permission). Always recoverable.
package transport
