// Package timeline holds the precomputed cue list that drives the actuators.
//
// A timeline is loaded once per session from a JSON document:
//
//	{
//	  "source": "mushroom.wav",
//	  "sample_rate": 44100,
//	  "chunk_ms": 20,
//	  "entries": [{"time": 0.0, "duty": 0}, {"time": 0.02, "duty": 128}]
//	}
//
// The document is checked against an embedded CUE schema before it is
// decoded. Cue times are seconds from the start of playback and duties are
// raw intensities in [0,255].
//
// Entries are expected to be sorted by time. This is a precondition, not
// something Parse enforces: a dispatcher fed unsorted entries will skip any
// cue that is earlier than one it has already passed.
//
// Once constructed a Timeline is immutable. Callers get copies of cues,
// never references into the backing slice.
package timeline
