package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hapsync/internal/duty"
	"github.com/roach88/hapsync/internal/timeline"
)

// Scenario defines a dispatch scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Offset is the pre-send offset in seconds.
	Offset float64 `yaml:"offset"`

	Strength duty.Range `yaml:"strength"`
	Motors   []int      `yaml:"motors"`

	// Timeline is given inline, or TimelineFile names a JSON timeline
	// relative to the scenario file.
	Timeline     *InlineTimeline `yaml:"timeline,omitempty"`
	TimelineFile string          `yaml:"timeline_file,omitempty"`

	Channels   []ChannelSpec `yaml:"channels"`
	Steps      []Step        `yaml:"steps"`
	Assertions []Assertion   `yaml:"assertions"`

	dir string
}

// InlineTimeline is a timeline written in the scenario itself.
type InlineTimeline struct {
	Entries []timeline.Cue `yaml:"entries"`
}

// ChannelSpec declares one recording channel.
type ChannelSpec struct {
	Name string `yaml:"name"`

	// Legacy selects the single-channel wire format.
	Legacy     bool `yaml:"legacy,omitempty"`
	Redundancy int  `yaml:"redundancy,omitempty"`
}

// Step is one host action. Exactly one field is set.
type Step struct {
	Tick     *float64  `yaml:"tick,omitempty"`
	Playing  *bool     `yaml:"playing,omitempty"` // with tick; default true
	Seek     *float64  `yaml:"seek,omitempty"`
	Fail     *FailStep `yaml:"fail,omitempty"`
	Down     *DownStep `yaml:"down,omitempty"`
	Shutdown bool      `yaml:"shutdown,omitempty"`
}

// FailStep makes the next Count sends on Channel fail.
type FailStep struct {
	Channel string `yaml:"channel"`
	Count   int    `yaml:"count"`
}

// DownStep makes every send on Channel fail until cleared.
type DownStep struct {
	Channel string `yaml:"channel"`
	Down    bool   `yaml:"down"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Line is the trace line (trace_contains, trace_count).
	Line string `yaml:"line,omitempty"`

	// Lines is the expected order (trace_order).
	Lines []string `yaml:"lines,omitempty"`

	// Count is the expected occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// State is the dispatcher state (final_state).
	State string `yaml:"state,omitempty"`

	// Channel, Consecutive and Escalated check channel_state.
	Channel     string `yaml:"channel,omitempty"`
	Consecutive int    `yaml:"consecutive,omitempty"`
	Escalated   bool   `yaml:"escalated,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertChannelState  = "channel_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.dir = filepath.Dir(path)

	if scenario.TimelineFile != "" {
		if _, err := os.Stat(scenario.timelinePath()); err != nil {
			return nil, fmt.Errorf("invalid scenario: timeline file: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. A timeline_file is resolved against
// the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// KnownFields catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func (s *Scenario) timelinePath() string {
	if filepath.IsAbs(s.TimelineFile) || s.dir == "" {
		return s.TimelineFile
	}
	return filepath.Join(s.dir, s.TimelineFile)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if (s.Timeline == nil) == (s.TimelineFile == "") {
		return fmt.Errorf("exactly one of timeline or timeline_file is required")
	}
	if !s.Strength.Valid() {
		return fmt.Errorf("strength: need 0 <= min <= max <= %d", duty.MaxRaw)
	}
	if len(s.Channels) == 0 {
		return fmt.Errorf("channels list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	names := make(map[string]bool)
	for i, ch := range s.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channels[%d]: name is required", i)
		}
		if names[ch.Name] {
			return fmt.Errorf("channels[%d]: duplicate name %q", i, ch.Name)
		}
		names[ch.Name] = true
		if !ch.Legacy && len(s.Motors) == 0 {
			return fmt.Errorf("channels[%d]: motors are required for motor channels", i)
		}
	}

	for i, st := range s.Steps {
		set := 0
		if st.Tick != nil {
			set++
		}
		if st.Seek != nil {
			set++
		}
		if st.Fail != nil {
			set++
			if !names[st.Fail.Channel] {
				return fmt.Errorf("steps[%d]: unknown channel %q", i, st.Fail.Channel)
			}
		}
		if st.Down != nil {
			set++
			if !names[st.Down.Channel] {
				return fmt.Errorf("steps[%d]: unknown channel %q", i, st.Down.Channel)
			}
		}
		if st.Shutdown {
			set++
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one action is required, got %d", i, set)
		}
		if st.Playing != nil && st.Tick == nil {
			return fmt.Errorf("steps[%d]: playing is only valid with tick", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, names); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, channels map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Line == "" {
			return fmt.Errorf("assertions[%d]: line is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Line == "" {
			return fmt.Errorf("assertions[%d]: line is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Lines) == 0 {
			return fmt.Errorf("assertions[%d]: lines list is required for trace_order", index)
		}
	case AssertFinalState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	case AssertChannelState:
		if !channels[a.Channel] {
			return fmt.Errorf("assertions[%d]: unknown channel %q", index, a.Channel)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
