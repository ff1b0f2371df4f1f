package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore writes a config file and returns its path plus the store dir.
func testStore(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	cfg := `
table:
  name: hosts
  key_field: host
store:
  directory: ` + dir + `
  codec: json
logging:
  level: error
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return cfgPath, dir
}

func writePoll(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestIngestQueryRoundTrip(t *testing.T) {
	cfgPath, dir := testStore(t)

	poll1 := writePoll(t, dir, "poll1.jsonl",
		`{"host": "web1", "state": "up", "polledTime": 1000.0}
{"host": "web2", "state": "up", "polledTime": 1000.0}
`)
	poll2 := writePoll(t, dir, "poll2.jsonl",
		`{"host": "web1", "state": "down", "polledTime": 2000.0}
{"host": "web2", "state": "up", "polledTime": 2000.0}
`)

	out, err := execute(t, NewIngestCommand(&cfgPath), poll1)
	require.NoError(t, err)
	assert.Contains(t, out, "poll 1000000 ingested")
	assert.Contains(t, out, "opened 2")

	_, err = execute(t, NewIngestCommand(&cfgPath), poll2)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "table.json"))
	assert.FileExists(t, filepath.Join(dir, "history.json"))

	// Before the change.
	out, err = execute(t, NewQueryCommand(&cfgPath), "--key", "web1", "--at", "1200000")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "up"`)

	// After the change.
	out, err = execute(t, NewQueryCommand(&cfgPath), "--key", "web1", "--at", "2000000")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "down"`)

	// Unknown key.
	_, err = execute(t, NewQueryCommand(&cfgPath), "--key", "web9", "--at", "2000000")
	assert.Error(t, err)
}

func TestIngest_OrderingViolation(t *testing.T) {
	cfgPath, dir := testStore(t)

	poll := writePoll(t, dir, "poll.jsonl", `{"host": "web1", "state": "up", "polledTime": 2000.0}
`)
	stale := writePoll(t, dir, "stale.jsonl", `{"host": "web1", "state": "down", "polledTime": 1000.0}
`)

	_, err := execute(t, NewIngestCommand(&cfgPath), poll)
	require.NoError(t, err)

	_, err = execute(t, NewIngestCommand(&cfgPath), stale)
	assert.Error(t, err)
}

func TestIngest_MalformedLine(t *testing.T) {
	cfgPath, dir := testStore(t)

	poll := writePoll(t, dir, "poll.jsonl", `{"host": "web1", "polledTime": 1000.0}
not json
`)

	_, err := execute(t, NewIngestCommand(&cfgPath), poll)
	assert.ErrorIs(t, err, ErrBadRecord)
}

func TestStatsAndTimes(t *testing.T) {
	cfgPath, dir := testStore(t)

	poll1 := writePoll(t, dir, "poll1.jsonl", `{"host": "web1", "state": "up", "polledTime": 1000.0}
`)
	poll2 := writePoll(t, dir, "poll2.jsonl", `{"host": "web1", "state": "down", "polledTime": 2000.0}
`)

	_, err := execute(t, NewIngestCommand(&cfgPath), poll1)
	require.NoError(t, err)
	_, err = execute(t, NewIngestCommand(&cfgPath), poll2)
	require.NoError(t, err)

	out, err := execute(t, NewStatsCommand(&cfgPath))
	require.NoError(t, err)
	assert.Contains(t, out, "1 entities, 2 windows")

	out, err = execute(t, NewTimesCommand(&cfgPath))
	require.NoError(t, err)
	assert.Contains(t, out, "2 polls")
	assert.Contains(t, out, "1000000")
}

func TestPlot(t *testing.T) {
	cfgPath, dir := testStore(t)

	poll1 := writePoll(t, dir, "poll1.jsonl", `{"host": "web1", "state": "up", "polledTime": 1000.0}
`)
	poll2 := writePoll(t, dir, "poll2.jsonl", `{"host": "web1", "state": "up", "polledTime": 2000.0}
`)

	_, err := execute(t, NewIngestCommand(&cfgPath), poll1)
	require.NoError(t, err)
	_, err = execute(t, NewIngestCommand(&cfgPath), poll2)
	require.NoError(t, err)

	htmlPath := filepath.Join(dir, "polls.html")

	_, err = execute(t, NewPlotCommand(&cfgPath), "--output", htmlPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Poll Intervals")
}

func TestQuery_RequiresStore(t *testing.T) {
	cfgPath, _ := testStore(t)

	_, err := execute(t, NewQueryCommand(&cfgPath), "--key", "web1")
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, float64(7), parseKey("7"))
	assert.Equal(t, 2.5, parseKey("2.5"))
	assert.Equal(t, "web1", parseKey("web1"))
}

func TestReadPoll(t *testing.T) {
	t.Parallel()

	seq, readErr := readPoll(strings.NewReader(`{"a": 1}

{"b": 2}
`))

	var n int
	for range seq {
		n++
	}

	require.NoError(t, readErr())
	assert.Equal(t, 2, n)
}
