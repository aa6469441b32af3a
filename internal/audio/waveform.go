package audio

import "math"

// Waveform shapes.
const (
	Square   = 0.0
	Triangle = 0.5
	Sine     = 1.0
)

// Waveform returns the sample at phase (in [0,1)) for shape in [0,1].
// Below 0.5 the shape blends square into triangle, above it triangle into
// sine; at exactly 0.5 the result is a pure triangle from either side.
func Waveform(phase, shape float64) float64 {
	shape = clamp01(shape)
	tri := 2*math.Abs(2*(phase-math.Floor(phase+0.5))) - 1

	if shape < 0.5 {
		sq := -1.0
		if phase < 0.5 {
			sq = 1
		}
		return lerp(sq, tri, shape*2)
	}

	sine := math.Sin(phase * 2 * math.Pi)
	return lerp(tri, sine, (shape-0.5)*2)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
