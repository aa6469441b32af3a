// Package channels adapts a cue's raw duty to each configured output.
//
// A Channel receives every dispatched duty. MotorChannel maps it into the
// strength range and sends one command per motor through a
// transport.Reliable. The legacy form sends the clamped raw duty as a single
// datagram. AudioChannel retargets the speaker envelope and steps it once
// per tick.
//
// Open builds a Set from configuration. Configuration errors abort; a
// channel that fails to connect is logged and left out, and Open only fails
// when no channel could be opened at all.
package channels
