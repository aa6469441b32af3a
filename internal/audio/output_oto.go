//go:build !headless

package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

func otoContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
		})
		if otoErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})
	if otoErr == nil && otoRate != sampleRate {
		return nil, ErrSampleRate
	}
	return otoCtx, otoErr
}

// Output plays a Synth on the default audio device.
type Output struct {
	player   *oto.Player
	synth    atomic.Pointer[Synth]
	channels int
	buf      []float32

	mu      sync.Mutex
	playing bool
}

// NewOutput opens the audio device. Playback does not start until Start.
func NewOutput(s *Synth, sampleRate, channels int) (*Output, error) {
	if channels < 1 {
		channels = 1
	}
	ctx, err := otoContext(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	o := &Output{
		channels: channels,
		buf:      make([]float32, 4096),
	}
	o.synth.Store(s)
	o.player = ctx.NewPlayer(o)
	return o, nil
}

// Read implements io.Reader for the oto player.
func (o *Output) Read(p []byte) (int, error) {
	n := len(p) / 4
	n -= n % o.channels

	s := o.synth.Load()
	if s == nil {
		clear(p)
		return len(p), nil
	}

	if len(o.buf) < n {
		o.buf = make([]float32, n)
	}
	samples := o.buf[:n]
	s.Fill(samples, o.channels)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return n * 4, nil
}

// Start begins playback.
func (o *Output) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.playing {
		o.player.Play()
		o.playing = true
	}
}

// Stop pauses playback. The device stays open.
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.playing {
		o.player.Pause()
		o.playing = false
	}
}

// Playing reports whether Start has been called without a later Stop.
func (o *Output) Playing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

// Close stops playback and releases the player.
func (o *Output) Close() error {
	o.Stop()
	o.synth.Store(nil)
	return o.player.Close()
}
