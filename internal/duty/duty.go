// Package duty translates raw cue intensities into the ranges each transport
// understands. Every function here is pure.
package duty

import "math"

// MaxRaw is the largest raw duty a cue may carry.
const MaxRaw = 255

// Range is the usable strength window of a motor. Below Min the motor stalls
// rather than vibrating, above Max it is uncomfortable.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Valid reports whether the range is ordered and inside [0,255].
func (r Range) Valid() bool {
	return r.Min >= 0 && r.Max <= MaxRaw && r.Min <= r.Max
}

// MapMotorDuty maps a raw duty onto [minStrength,maxStrength].
//
// Zero is "motor off" and always maps to zero; the floor is never applied to
// silence. Any other value is interpolated linearly from [0,255], rounded to
// the nearest integer (ties to even) and clamped.
func MapMotorDuty(raw, minStrength, maxStrength int) int {
	if raw == 0 {
		return 0
	}

	t := float64(raw) / MaxRaw
	t = math.Max(0, math.Min(1, t))

	lo, hi := float64(minStrength), float64(maxStrength)
	mapped := int(math.RoundToEven(lo + (hi-lo)*t))

	return clamp(mapped, minStrength, maxStrength)
}

// Map is MapMotorDuty using the range r.
func (r Range) Map(raw int) int {
	return MapMotorDuty(raw, r.Min, r.Max)
}

// MapAudioTargetVolume converts a raw duty into a speaker amplitude in [0,1].
// Boost lets a weak speaker reach full excursion well before raw hits 255.
func MapAudioTargetVolume(raw int, maxVolume, boost float64) float64 {
	v := (float64(raw) / MaxRaw) * maxVolume * boost
	return math.Max(0, math.Min(1, v))
}

// Clamp limits a duty to the wire range [0,255].
func Clamp(d int) int {
	return clamp(d, 0, MaxRaw)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
