package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario and compares its trace against
// testdata/golden/<name>.golden. Update with `go test -update`.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %q failed to run: %v", scenario.Name, err)
	}
	if !result.Pass {
		for _, msg := range result.Errors {
			t.Errorf("%s: %s", scenario.Name, msg)
		}
	}

	AssertGolden(t, scenario.Name, result)
	return result
}

// AssertGolden compares a result's trace against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(FormatTrace(result.Trace)))
}

// FormatTrace renders a trace one line per entry with a trailing newline.
func FormatTrace(trace []string) string {
	if len(trace) == 0 {
		return ""
	}
	return strings.Join(trace, "\n") + "\n"
}
