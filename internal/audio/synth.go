package audio

import (
	"math"
	"sync/atomic"
)

// Config holds synthesis parameters.
type Config struct {
	// Frequency of the tone in Hz.
	Frequency  float64 `yaml:"frequency" json:"frequency"`
	SampleRate int     `yaml:"sample_rate" json:"sample_rate"`
	Channels   int     `yaml:"channels" json:"channels"`

	// Waveform is the shape: 0 square, 0.5 triangle, 1 sine.
	Waveform  float64 `yaml:"waveform" json:"waveform"`
	MaxVolume float64 `yaml:"max_volume" json:"max_volume"`
	Boost     float64 `yaml:"boost" json:"boost"`

	// Smoothing is the fraction of the current volume kept each tick.
	Smoothing float64 `yaml:"smoothing" json:"smoothing"`
}

// DefaultConfig returns the tuning used for handheld speaker haptics.
func DefaultConfig() Config {
	return Config{
		Frequency:  15,
		SampleRate: 44100,
		Channels:   2,
		Waveform:   0.2,
		MaxVolume:  1,
		Boost:      3,
		Smoothing:  0.95,
	}
}

// Synth generates the tone. Fill is called from the audio goroutine only;
// SetVolume may be called from any goroutine.
type Synth struct {
	increment float64
	shape     float64
	phase     float64

	volume atomic.Uint64 // float64 bits
}

// NewSynth returns a silent synthesizer for cfg.
func NewSynth(cfg Config) *Synth {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultConfig().SampleRate
	}
	return &Synth{
		increment: cfg.Frequency / float64(rate),
		shape:     cfg.Waveform,
	}
}

// SetVolume publishes the amplitude used by subsequent samples.
func (s *Synth) SetVolume(v float64) {
	s.volume.Store(math.Float64bits(clamp01(v)))
}

// Volume returns the published amplitude.
func (s *Synth) Volume() float64 {
	return math.Float64frombits(s.volume.Load())
}

// Phase returns the oscillator phase, in [0,1).
func (s *Synth) Phase() float64 { return s.phase }

// Fill writes interleaved frames into buf, the same sample on every
// channel. A trailing partial frame is left untouched.
func (s *Synth) Fill(buf []float32, channels int) {
	if channels < 1 {
		channels = 1
	}
	vol := s.Volume()

	for i := 0; i+channels <= len(buf); i += channels {
		v := float32(Waveform(s.phase, s.shape) * vol)
		for c := 0; c < channels; c++ {
			buf[i+c] = v
		}

		s.phase += s.increment
		if s.phase >= 1 {
			s.phase -= math.Floor(s.phase)
		}
	}
}
