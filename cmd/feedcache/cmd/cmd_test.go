package cmd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedcache/internal/testutil"
	"feedcache/pkg/ingest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeEvents(t *testing.T, dir string) string {
	t.Helper()
	var lines []string
	add := func(ev ingest.Event) {
		if ev.Tags == nil {
			ev.Tags = [][]string{}
		}
		id := ev.ComputeID()
		ev.ID = hex.EncodeToString(id[:])
		raw, err := json.Marshal(ev)
		require.NoError(t, err)
		lines = append(lines, string(raw))
	}
	author := testutil.PublicKey(5).String()
	add(ingest.Event{PubKey: author, CreatedAt: 1700000000, Kind: ingest.KindMetadata, Content: `{"name":"erin"}`})
	for i := int64(0); i < 3; i++ {
		add(ingest.Event{PubKey: author, CreatedAt: 1700000100 + i, Kind: ingest.KindTextNote, Content: "hello"})
	}
	path := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))
	return path
}

func TestImportFeedAndInspect(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "data")
	events := writeEvents(t, dir)

	out, err := run(t, "--db", db, "--log-level", "error", "import", events)
	require.NoError(t, err)
	assert.Equal(t, "applied 4, skipped 0, rejected 0\n", out)

	out, err = run(t, "--db", db, "feed", "--limit", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2023-11-14T22:15:02Z")
	assert.Contains(t, lines[0], "erin")

	out, err = run(t, "--db", db, "authors")
	require.NoError(t, err)
	assert.Contains(t, out, "erin")

	out, err = run(t, "--db", db, "profile", testutil.PublicKey(5).String())
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "erin"`)

	out, err = run(t, "--db", db, "stats", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "textnote")
	assert.Contains(t, out, "feedcache_pebble_disk_usage_bytes")

	out, err = run(t, "--db", db, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "system")
	assert.Contains(t, out, "textnotebytimestamp")

	_, err = run(t, "--db", db, "note", "zz")
	assert.Error(t, err)
}
