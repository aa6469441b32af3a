package audio

import "errors"

var (
	// ErrNoDevice is returned when the build has no audio backend.
	ErrNoDevice = errors.New("audio: no output device in this build")

	// ErrSampleRate is returned when a second output asks for a different
	// sample rate than the first. The device context is opened once per
	// process.
	ErrSampleRate = errors.New("audio: sample rate differs from the open device")
)
