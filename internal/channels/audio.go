package channels

import (
	"github.com/roach88/hapsync/internal/audio"
	"github.com/roach88/hapsync/internal/duty"
)

// Player plays a synth on a device.
type Player interface {
	Start()
	Stop()
	Close() error
}

// AudioChannel drives the speaker tone.
type AudioChannel struct {
	cfg    audio.Config
	synth  *audio.Synth
	env    *audio.Envelope
	player Player
}

// NewAudioChannel drives synth through an envelope. player may be nil when
// samples are pulled directly from the synth, as the WAV renderer does.
func NewAudioChannel(cfg audio.Config, synth *audio.Synth, player Player) *AudioChannel {
	c := &AudioChannel{
		cfg:    cfg,
		synth:  synth,
		env:    audio.NewEnvelope(synth, cfg.Smoothing),
		player: player,
	}
	if player != nil {
		player.Start()
	}
	return c
}

func (c *AudioChannel) Name() string { return "audio" }

// Dispatch retargets the envelope. The volume moves on the next Tick.
func (c *AudioChannel) Dispatch(raw int) error {
	c.env.SetTarget(duty.MapAudioTargetVolume(raw, c.cfg.MaxVolume, c.cfg.Boost))
	return nil
}

// Tick steps the envelope toward its target.
func (c *AudioChannel) Tick() { c.env.Step() }

// Stop halts the device and mutes the synth.
func (c *AudioChannel) Stop() {
	if c.player != nil {
		c.player.Stop()
	}
	c.env.Mute()
}

// Silence mutes the synth.
func (c *AudioChannel) Silence() error {
	c.env.Mute()
	return nil
}

// Synth returns the driven synthesizer.
func (c *AudioChannel) Synth() *audio.Synth { return c.synth }

// Envelope returns the volume envelope.
func (c *AudioChannel) Envelope() *audio.Envelope { return c.env }

func (c *AudioChannel) Close() error {
	if c.player == nil {
		return nil
	}
	return c.player.Close()
}
