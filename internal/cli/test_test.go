package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: one_cue
strength: {min: 30, max: 60}
motors: [0]
timeline:
  entries: [{time: 0, duty: 255}]
channels: [{name: udp}]
steps: [{tick: 0}]
assertions:
  - type: trace_contains
    line: "udp M0:60"
`

func runTestCmd(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCmd(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCmd(t, &RootOptions{Format: "text"}, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCmd(t, &RootOptions{Format: "text"}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := runTestCmd(t, &RootOptions{Format: "json"}, filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Failed)
	assert.GreaterOrEqual(t, resp.Data.Passed, 5)
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	writeFile(t, scenarios, "one_cue.yaml", passingScenario)

	out, err := runTestCmd(t, &RootOptions{Format: "text"}, scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ one_cue (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "one_cue.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), "udp M0:60\n")

	out, err = runTestCmd(t, &RootOptions{Format: "text"}, scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ one_cue")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	// A stale golden file fails the scenario.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "one_cue.golden"), []byte("stale\n"), 0644))
	out, err = runTestCmd(t, &RootOptions{Format: "text"}, scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one_cue.yaml", passingScenario)
	writeFile(t, dir, "broken.yaml", "name: broken\n")

	out, err := runTestCmd(t, &RootOptions{Format: "text"}, dir, "--filter", "one*", "--golden", filepath.Join(dir, "none"))
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = runTestCmd(t, &RootOptions{Format: "text"}, dir, "--golden", filepath.Join(dir, "none"))
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
