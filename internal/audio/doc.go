// Package audio synthesizes the low-frequency tone that turns a speaker or
// bass transducer into a vibration actuator.
//
// A Synth produces a waveform blended between square, triangle and sine at
// a fixed frequency (15 Hz by default, below the range of hearing). Its
// amplitude is published lock-free by the dispatch goroutine through an
// Envelope and read on the audio device's callback goroutine.
//
// Output plays a Synth through the system audio device. Builds tagged
// headless have no device and NewOutput always fails.
package audio
