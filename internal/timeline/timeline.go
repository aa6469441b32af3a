package timeline

// Cue is a timestamped intensity instruction.
type Cue struct {
	// Time is the playback position in seconds at which the cue is due.
	Time float64 `json:"time"`

	// Duty is the raw intensity in [0,255].
	Duty int `json:"duty"`
}

// Timeline is an immutable, time-ordered cue list.
type Timeline struct {
	source     string
	sampleRate int
	chunkMS    int
	entries    []Cue
}

// New creates a Timeline from already decoded values. The entries slice is
// copied. An empty entry list is a LoadError.
func New(source string, sampleRate, chunkMS int, entries []Cue) (*Timeline, error) {
	if len(entries) == 0 {
		return nil, &LoadError{Code: ErrCodeNoEntries, Message: "timeline has no entries"}
	}

	cp := make([]Cue, len(entries))
	copy(cp, entries)

	return &Timeline{
		source:     source,
		sampleRate: sampleRate,
		chunkMS:    chunkMS,
		entries:    cp,
	}, nil
}

// Source is the name of the media the timeline was computed from.
func (t *Timeline) Source() string { return t.source }

// SampleRate is the sample rate of the analysed source audio.
func (t *Timeline) SampleRate() int { return t.sampleRate }

// ChunkMS is the analysis window used to produce the cues.
func (t *Timeline) ChunkMS() int { return t.chunkMS }

// Len returns the number of cues.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// At returns the cue at index i. It panics if i is out of range, like a
// slice index would.
func (t *Timeline) At(i int) Cue {
	return t.entries[i]
}

// Entries returns a copy of all cues.
func (t *Timeline) Entries() []Cue {
	cp := make([]Cue, len(t.entries))
	copy(cp, t.entries)
	return cp
}

// Duration returns the time of the last cue.
func (t *Timeline) Duration() float64 {
	if t.Len() == 0 {
		return 0
	}
	return t.entries[len(t.entries)-1].Time
}

// SeekIndex returns the index of the first cue whose time is at or after
// seconds, or Len() if there is none.
//
// The scan is linear and in file order so that the result does not depend on
// the entries being sorted.
func (t *Timeline) SeekIndex(seconds float64) int {
	for i, c := range t.entries {
		if c.Time >= seconds {
			return i
		}
	}
	return len(t.entries)
}
