package render

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hapsync/internal/audio"
	"github.com/roach88/hapsync/internal/timeline"
)

func testOptions() Options {
	cfg := audio.DefaultConfig()
	cfg.SampleRate = 8000
	cfg.Channels = 1
	cfg.Waveform = audio.Square
	cfg.Smoothing = 0
	return Options{
		Audio:    cfg,
		TickRate: 100,
		Tail:     0.5,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestWAV(t *testing.T) {
	tl, err := timeline.New("t", 0, 0, []timeline.Cue{
		{Time: 0, Duty: 0},
		{Time: 0.5, Duty: 255},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	sum, err := WAV(f, tl, testOptions())
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, 8000, sum.Frames, "0.5s timeline + 0.5s tail")
	assert.Equal(t, 2, sum.Dispatched)
	assert.InDelta(t, 1.0, sum.Peak, 1e-6)

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	dec := wav.NewDecoder(r)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint32(8000), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	require.Len(t, buf.Data, 8000)

	// silent until the second cue, full-scale square after
	for _, v := range buf.Data[:3900] {
		require.Zero(t, v)
	}
	assert.Equal(t, 32767, abs(buf.Data[4100]))
}

func TestWAV_Errors(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	require.NoError(t, err)
	defer f.Close()

	opts := testOptions()
	_, err = WAV(f, nil, opts)
	assert.True(t, timeline.IsLoadError(err))

	opts.TickRate = 0
	_, err = WAV(f, nil, opts)
	assert.Error(t, err)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
