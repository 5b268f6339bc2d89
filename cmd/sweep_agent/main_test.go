package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// TestMain runs before all tests and loads .env if available
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	os.Exit(m.Run())
}

var fixtureBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixtureItems() []types.Item {
	item := func(id, text string, offset time.Duration) types.Item {
		return types.Item{
			ID:        id,
			ScopeID:   "course-1",
			Language:  "en",
			Text:      text,
			Options:   []string{"TLS 1.3", "FTP", "SMTP", "ARP"},
			Type:      "application",
			Active:    true,
			UpdatedAt: fixtureBase.Add(offset),
		}
	}
	return []types.Item{
		item("a", "Which protocol secures HTTPS traffic between a browser and a server?", 0),
		item("b", "Which port does HTTPS listen on by default on most web servers?", time.Minute),
		item("c", "Which protocol secures HTTPS traffic between a browser and a server?", 2*time.Minute),
	}
}

// workspace is a temp directory with a fixture and a config pointing at it.
type workspace struct {
	dir     string
	config  string
	state   string
	audit   string
	metrics string
	fixture string
}

func newWorkspace(t *testing.T, storeYAML string) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:     dir,
		config:  filepath.Join(dir, "sweep.yaml"),
		state:   filepath.Join(dir, "state", "run_state.json"),
		audit:   filepath.Join(dir, "state", "audit.md"),
		metrics: filepath.Join(dir, "metrics", "sweep.prom"),
		fixture: filepath.Join(dir, "items.json"),
	}

	data, err := json.Marshal(fixtureItems())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(ws.fixture, data, 0o644))

	if storeYAML == "" {
		storeYAML = "  driver: memory\n  fixture_path: " + ws.fixture + "\n"
	}
	cfg := "store:\n" + storeYAML +
		"state_path: " + ws.state + "\n" +
		"audit_path: " + ws.audit + "\n" +
		"metrics_path: " + ws.metrics + "\n" +
		"retry:\n  max_attempts: 1\n"
	require.NoError(t, os.WriteFile(ws.config, []byte(cfg), 0o644))
	return ws
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func readState(t *testing.T, path string) types.RunState {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var state types.RunState
	require.NoError(t, json.Unmarshal(data, &state))
	return state
}

func TestRunCommand_ProcessesAndCheckpoints(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := execute(t, "run", "--config", ws.config, "--count", "4")
	require.NoError(t, err)

	assert.Contains(t, out, "SWEEP SUMMARY")
	assert.Contains(t, out, "Processed: 4")
	assert.Contains(t, out, "Written:   1")

	state := readState(t, ws.state)
	require.NotNil(t, state.Cursor)
	assert.Equal(t, "c", state.Cursor.ItemID)
	assert.Equal(t, "sweep-agent", state.Agent)

	ledger, err := os.ReadFile(ws.audit)
	require.NoError(t, err)
	assert.Contains(t, string(ledger), "### Item a")
	assert.Contains(t, string(ledger), "### Item c")

	metrics, err := os.ReadFile(ws.metrics)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "content_sweep_writes_total 1")
}

func TestRunCommand_DryRunPersistsNothing(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := execute(t, "run", "--config", ws.config, "--count", "3", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Mode:      dry run")

	for _, path := range []string{ws.state, ws.audit, ws.metrics} {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "%s should not exist", path)
	}
}

func TestPickNextCommand(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := execute(t, "pick-next", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Next:     a @")
	assert.Contains(t, out, "initial run")

	_, err = execute(t, "run", "--config", ws.config, "--count", "1")
	require.NoError(t, err)

	out, err = execute(t, "pick-next", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Next:     b @")
}

func TestEvaluateCommand(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := execute(t, "evaluate", "--config", ws.config, "--id", "c")
	require.NoError(t, err)
	assert.Contains(t, out, "ITEM EVALUATION")
	assert.Contains(t, out, "Duplicate of a")

	out, err = execute(t, "evaluate", "--config", ws.config, "--id", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Duplicate group keeper")

	_, err = execute(t, "evaluate", "--config", ws.config, "--id", "missing")
	assert.True(t, itemstore.IsNotFound(err))
}

func TestEvaluateCommand_RequiresID(t *testing.T) {
	ws := newWorkspace(t, "")

	_, err := execute(t, "evaluate", "--config", ws.config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestApplyPatchCommand(t *testing.T) {
	ws := newWorkspace(t, "")
	patchPath := filepath.Join(ws.dir, "patch.json")
	require.NoError(t, os.WriteFile(patchPath, []byte(`{"difficulty": "hard"}`), 0o644))

	out, err := execute(t, "apply-patch", "--config", ws.config, "--id", "a", "--patch", patchPath)
	require.NoError(t, err)
	assert.Contains(t, out, "written and verified")

	out, err = execute(t, "apply-patch", "--config", ws.config, "--id", "a", "--patch", patchPath, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
}

func TestApplyPatchCommand_RejectsInvalidPatch(t *testing.T) {
	ws := newWorkspace(t, "")
	patchPath := filepath.Join(ws.dir, "patch.json")
	require.NoError(t, os.WriteFile(patchPath, []byte(`{"bogus": 1}`), 0o644))

	_, err := execute(t, "apply-patch", "--config", ws.config, "--id", "a", "--patch", patchPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid patch file")
}

func TestHandoverCommand(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := execute(t, "handover", "--config", ws.config, "--note", "paused for content freeze")
	require.NoError(t, err)
	assert.Contains(t, out, "Note recorded")

	state := readState(t, ws.state)
	require.Len(t, state.Notes, 1)
	assert.Contains(t, state.Notes[0], "paused for content freeze")
	assert.Nil(t, state.Cursor)
}

func TestAuditLatestCommand(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := execute(t, "audit-latest", "--config", ws.config, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "LATEST ITEMS")
	assert.Contains(t, out, " c ")
	assert.Contains(t, out, " b ")
	assert.NotContains(t, out, " a ")
	assert.Contains(t, out, "0 of 2 items need attention")
}

func TestLatestItems(t *testing.T) {
	items := fixtureItems()

	assert.Equal(t, []string{"c", "b"}, ids(latestItems(items, 2)))
	assert.Equal(t, []string{"c", "b", "a"}, ids(latestItems(items, 10)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(items), "input is not modified")
}

func ids(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestDedupeScopeCommand(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := execute(t, "dedupe-scope", "--config", ws.config, "--scope", "course-1")
	require.NoError(t, err)
	assert.Contains(t, out, "• c (fallback)")
	assert.Contains(t, out, "1 of 1 remediations written")

	out, err = execute(t, "dedupe-scope", "--config", ws.config, "--scope", "course-2")
	require.NoError(t, err)
	assert.Contains(t, out, "No duplicates")
}

func TestInitStoreAndRunOnSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "items.db")
	ws := newWorkspace(t, "  driver: sqlite\n  sqlite_path: "+dbPath+"\n")

	out, err := execute(t, "init-store", "--config", ws.config, "--fixture", ws.fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 items")

	out, err = execute(t, "run", "--config", ws.config, "--count", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed: 3")

	// The write to c survives the process because the store is on disk.
	out, err = execute(t, "evaluate", "--config", ws.config, "--id", "c")
	require.NoError(t, err)
	assert.NotContains(t, out, "Duplicate of a")
}

func TestConfigValidationError(t *testing.T) {
	ws := newWorkspace(t, "  driver: memory\n")

	_, err := execute(t, "run", "--config", ws.config, "--count", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FixturePath")
}
