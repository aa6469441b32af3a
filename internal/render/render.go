// Package render writes the speaker vibration track of a timeline to a WAV
// file, without an audio device.
//
// The dispatcher runs against a simulated clock at the configured tick rate
// and the synth is pulled for exactly the frames between ticks, so the file
// is what the speaker would have played.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/roach88/hapsync/internal/audio"
	"github.com/roach88/hapsync/internal/channels"
	"github.com/roach88/hapsync/internal/dispatch"
	"github.com/roach88/hapsync/internal/timeline"
)

const bitDepth = 16

// Options control a render.
type Options struct {
	Audio    audio.Config
	Offset   float64 // pre-send offset, seconds
	TickRate int     // simulated frames per second
	Tail     float64 // seconds rendered after the last cue
	Logger   *slog.Logger
}

// Summary describes a finished render.
type Summary struct {
	Frames     int
	Seconds    float64
	Ticks      int
	Dispatched int
	Peak       float64 // largest absolute sample, 0..1
}

// WAV renders tl into w as 16-bit PCM.
func WAV(w io.WriteSeeker, tl *timeline.Timeline, opts Options) (Summary, error) {
	if opts.TickRate <= 0 {
		return Summary{}, fmt.Errorf("render: tick rate must be positive, got %d", opts.TickRate)
	}
	if opts.Audio.SampleRate <= 0 {
		return Summary{}, fmt.Errorf("render: sample rate must be positive, got %d", opts.Audio.SampleRate)
	}
	if opts.Audio.Channels < 1 {
		opts.Audio.Channels = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	synth := audio.NewSynth(opts.Audio)
	set := channels.NewSet(log, channels.NewAudioChannel(opts.Audio, synth, nil))
	d := dispatch.New(
		dispatch.WithPreSendOffset(opts.Offset),
		dispatch.WithChannels(set),
		dispatch.WithLogger(log))
	defer d.Shutdown()

	if err := d.Initialize(tl); err != nil {
		return Summary{}, err
	}

	rate := opts.Audio.SampleRate
	chans := opts.Audio.Channels
	total := tl.Duration() + math.Max(0, opts.Tail)
	totalFrames := int(math.Ceil(total * float64(rate)))

	enc := wav.NewEncoder(w, rate, bitDepth, chans, 1)
	out := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: chans, SampleRate: rate},
		SourceBitDepth: bitDepth,
	}

	var (
		sum    Summary
		frames int
		fbuf   []float32
	)
	for frames < totalFrames {
		t := float64(sum.Ticks) / float64(opts.TickRate)
		sum.Dispatched += d.Tick(t, true)
		sum.Ticks++

		end := int(math.Round(float64(sum.Ticks) * float64(rate) / float64(opts.TickRate)))
		end = min(end, totalFrames)
		n := (end - frames) * chans
		if n <= 0 {
			continue
		}

		if cap(fbuf) < n {
			fbuf = make([]float32, n)
		}
		fbuf = fbuf[:n]
		synth.Fill(fbuf, chans)

		out.Data = out.Data[:0]
		for _, v := range fbuf {
			sum.Peak = math.Max(sum.Peak, math.Abs(float64(v)))
			out.Data = append(out.Data, int(v*math.MaxInt16))
		}
		if err := enc.Write(out); err != nil {
			return sum, fmt.Errorf("render: write samples: %w", err)
		}
		frames = end
	}

	if err := enc.Close(); err != nil {
		return sum, fmt.Errorf("render: finish wav: %w", err)
	}

	sum.Frames = frames
	sum.Seconds = float64(frames) / float64(rate)
	log.Info("rendered", "frames", sum.Frames, "seconds", sum.Seconds, "dispatched", sum.Dispatched)
	return sum, nil
}
