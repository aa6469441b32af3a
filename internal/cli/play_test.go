package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hapsync/internal/store"
)

func runPlayCmd(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buf := &bytes.Buffer{}
	cmd := NewPlayCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestPlay_SendsTimeline(t *testing.T) {
	rx := newReceiver(t)
	dir := t.TempDir()
	tl := writeFile(t, dir, "tl.json", twoCueTimeline)
	cfg := networkConfig(t, dir, rx.port())

	out, err := runPlayCmd(t, &RootOptions{Format: "text", Config: cfg}, tl, "--linger", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Dispatched 2 of 2 cues to 1 channel(s)")

	// strength 30..60: duty 255 goes out as 60; shutdown silences
	require.True(t, rx.waitFor("M1:60", 2*time.Second), rx.messages())
	assert.Equal(t, "PING", rx.messages()[0])
	assert.Contains(t, rx.messages(), "M0:60")
}

func TestPlay_JournalAndInspect(t *testing.T) {
	rx := newReceiver(t)
	dir := t.TempDir()
	tl := writeFile(t, dir, "tl.json", twoCueTimeline)
	cfg := networkConfig(t, dir, rx.port())
	db := filepath.Join(dir, "journal.db")

	out, err := runPlayCmd(t, &RootOptions{Format: "json", Config: cfg}, tl, "--db", db, "--linger", "10ms")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   PlaySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Dispatched)
	assert.Equal(t, "disabled", resp.Data.State)
	require.NotEmpty(t, resp.Data.Session)

	st, err := store.Open(db)
	require.NoError(t, err)
	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, sessions, 1)
	assert.Equal(t, resp.Data.Session, sessions[0].ID)
	assert.Equal(t, 2, sessions[0].Dispatched)
	assert.Equal(t, "disabled", sessions[0].FinalState)

	// journal lists the session and shows its dispatches
	buf := &bytes.Buffer{}
	cmd := NewJournalCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), resp.Data.Session)
	assert.Contains(t, buf.String(), "2/2 cues")

	buf.Reset()
	cmd = NewJournalCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, resp.Data.Session})
	require.NoError(t, cmd.Execute())

	var detail struct {
		Data SessionDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &detail))
	require.Len(t, detail.Data.Dispatches, 2)
	assert.Equal(t, 255, detail.Data.Dispatches[1].Duty)
	assert.NotEmpty(t, detail.Data.Events)
}

func TestPlay_MissingTimeline(t *testing.T) {
	rx := newReceiver(t)
	dir := t.TempDir()
	cfg := networkConfig(t, dir, rx.port())

	_, err := runPlayCmd(t, &RootOptions{Format: "text", Config: cfg}, filepath.Join(dir, "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "E_NOT_FOUND")

	// channels are still released with an all-off command
	assert.True(t, rx.waitFor("M0:0", 2*time.Second), rx.messages())
}

func TestPlay_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "bad.yaml", "tick_rate: 0\n")

	_, err := runPlayCmd(t, &RootOptions{Format: "text", Config: cfg})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlay_NoChannel(t *testing.T) {
	dir := t.TempDir()
	tl := writeFile(t, dir, "tl.json", twoCueTimeline)
	// serial is the only channel and the port does not exist
	cfg := writeFile(t, dir, "serial.yaml", `network:
  enabled: false
serial:
  enabled: true
  port: `+filepath.Join(dir, "ttyNONE")+`
  settle: 1ms
`)

	_, err := runPlayCmd(t, &RootOptions{Format: "text", Config: cfg}, tl)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "no channel available")
}

func TestJournal_MissingDatabase(t *testing.T) {
	cmd := NewJournalCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "none.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
