package audio

// Envelope eases the synth amplitude toward a target once per tick.
type Envelope struct {
	synth     *Synth
	smoothing float64
	current   float64
	target    float64
}

// NewEnvelope drives synth. smoothing is the fraction of the current volume
// kept on each Step; 0 jumps straight to the target.
func NewEnvelope(synth *Synth, smoothing float64) *Envelope {
	return &Envelope{synth: synth, smoothing: clamp01(smoothing)}
}

// SetTarget sets the volume to move toward.
func (e *Envelope) SetTarget(v float64) {
	e.target = clamp01(v)
}

// Target returns the volume being moved toward.
func (e *Envelope) Target() float64 { return e.target }

// Current returns the volume last published to the synth.
func (e *Envelope) Current() float64 { return e.current }

// Step advances one tick and publishes the new volume.
func (e *Envelope) Step() {
	e.current = lerp(e.current, e.target, 1-e.smoothing)
	e.synth.SetVolume(e.current)
}

// Mute drops both target and current volume to zero immediately.
func (e *Envelope) Mute() {
	e.target = 0
	e.current = 0
	e.synth.SetVolume(0)
}
