package cli

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalText(t *testing.T) {
	path := writeGraph(t, testGraph)

	out, err := execute(t, "eval", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sum: (k.range_min + k.range_max) => uint256:14 (resolved)")
	assert.Contains(t, out, "top: (x.range_max + uint256:1) => (x.range_max + uint256:1) (symbolic)")
	assert.Contains(t, out, "scaled: (n.range_max * uint256:3) => uint256:30 (resolved)")
	assert.NotContains(t, out, "recorded under")
}

func TestEvalJSON(t *testing.T) {
	path := writeGraph(t, testGraph)

	out, err := execute(t, "eval", path, "--expr", "scaled", "--simplify", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   EvalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "simplify", resp.Data.Mode)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "scaled", resp.Data.Results[0].Name)
	assert.Equal(t, "uint256:30", resp.Data.Results[0].Output)
	assert.Equal(t, "resolved", resp.Data.Results[0].Outcome)
}

func TestEvalRejectsInvalidGraph(t *testing.T) {
	path := writeGraph(t, `vars: x: {range: {min: 9, max: 3}}
exprs: e: {ref: "x", side: "min"}`)

	_, err := execute(t, "eval", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation error")
}

func TestEvalQuota(t *testing.T) {
	path := writeGraph(t, testGraph)

	out, err := execute(t, "eval", path, "--expr", "sum", "--max-lookups", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "evaluate sum")
}

func TestEvalRecordsAndLog(t *testing.T) {
	path := writeGraph(t, testGraph)
	db := filepath.Join(t.TempDir(), "pyrometer.db")

	out, err := execute(t, "eval", path, "--db", db, "--snapshot", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded under snapshot s1")

	// Same expressions in the same mode are not recorded twice.
	_, err = execute(t, "eval", path, "--db", db, "--snapshot", "s1")
	require.NoError(t, err)

	out, err = execute(t, "log", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "s1  3 vars  3 evaluations")

	// A new mode adds records numbered after the existing ones.
	_, err = execute(t, "eval", path, "--db", db, "--snapshot", "s1", "--simplify")
	require.NoError(t, err)

	out, err = execute(t, "log", "--db", db, "--snapshot", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot: s1")
	assert.Contains(t, out, "[1] eval (k.range_min + k.range_max) => uint256:14 (resolved)")
	assert.Contains(t, out, "[4] simplify")
	assert.Contains(t, out, "[6] simplify")

	out, err = execute(t, "log", "--db", db, "--snapshot", "s1", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data LogResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data.Evaluations, 6)
}

func TestLogEmptyAndUnknown(t *testing.T) {
	db := filepath.Join(t.TempDir(), "pyrometer.db")

	out, err := execute(t, "log", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No snapshots found in database.\n", out)

	out, err = execute(t, "log", "--db", db, "--snapshot", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestSnapshotCommand(t *testing.T) {
	path := writeGraph(t, testGraph)
	db := filepath.Join(t.TempDir(), "pyrometer.db")

	out, err := execute(t, "snapshot", path, "--db", db, "--id", "release-1")
	require.NoError(t, err)
	assert.Equal(t, "release-1 (3 vars)\n", out)

	_, err = execute(t, "snapshot", path, "--db", db, "--id", "release-1")
	require.NoError(t, err, "same graph under the same id is a no-op")

	other := writeGraph(t, `vars: z: {range: {min: 0, max: 1}}`)
	out, err = execute(t, "snapshot", other, "--db", db, "--id", "release-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")

	out, err = execute(t, "snapshot", path, "--db", db, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data SnapshotResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp.Data.ID)
	assert.NotEqual(t, "release-1", resp.Data.ID)
}

func TestReplayClean(t *testing.T) {
	path := writeGraph(t, testGraph)
	db := filepath.Join(t.TempDir(), "pyrometer.db")

	_, err := execute(t, "eval", path, "--db", db, "--snapshot", "s1")
	require.NoError(t, err)
	_, err = execute(t, "eval", path, "--db", db, "--snapshot", "s2", "--simplify")
	require.NoError(t, err)

	out, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 snapshot(s)")
	assert.Contains(t, out, "✓ Snapshot: s1")
	assert.Contains(t, out, "Evaluations: 3 checked")
	assert.Contains(t, out, "✓ All evaluations reproduced")

	out, err = execute(t, "replay", "--db", db, "--snapshot", "s2", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	assert.Equal(t, 1, resp.Data.TotalSnapshots)
}

func TestReplayDetectsTampering(t *testing.T) {
	path := writeGraph(t, testGraph)
	db := filepath.Join(t.TempDir(), "pyrometer.db")

	_, err := execute(t, "eval", path, "--db", db, "--snapshot", "s1")
	require.NoError(t, err)

	raw, err := sql.Open("sqlite3", db)
	require.NoError(t, err)
	_, err = raw.Exec(`UPDATE evaluations SET output_hash = 'tampered' WHERE seq = 1`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	out, err := execute(t, "replay", "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	require.Len(t, resp.Data.Snapshots, 1)
	require.Len(t, resp.Data.Snapshots[0].Mismatches, 1)
	assert.Equal(t, int64(1), resp.Data.Snapshots[0].Mismatches[0].Seq)
	assert.Equal(t, "tampered", resp.Data.Snapshots[0].Mismatches[0].Want)

	out, err = execute(t, "replay", "--db", db)
	require.Error(t, err)
	assert.Contains(t, out, "✗ Snapshot: s1")
	assert.Contains(t, out, "[1] eval: output changed")
	assert.Contains(t, out, "✗ Replay verification failed")
}

func TestReplayUnknownSnapshot(t *testing.T) {
	db := filepath.Join(t.TempDir(), "pyrometer.db")

	out, err := execute(t, "replay", "--db", db, "--snapshot", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `snapshot "ghost" not found`)
}

func TestLogFilters(t *testing.T) {
	path := writeGraph(t, testGraph)
	db := filepath.Join(t.TempDir(), "pyrometer.db")

	_, err := execute(t, "eval", path, "--db", db, "--snapshot", "s1")
	require.NoError(t, err)

	out, err := execute(t, "log", "--db", db, "--snapshot", "s1", "--outcome", "symbolic")
	require.NoError(t, err)
	assert.Contains(t, out, "(x.range_max + uint256:1) (symbolic)")
	assert.NotContains(t, out, "uint256:14")

	out, err = execute(t, "log", "--db", db, "--snapshot", "s1", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] eval")
	assert.NotContains(t, out, "[2]")

	out, err = execute(t, "log", "--db", db, "--snapshot", "s1", "--mode", "simplify")
	require.NoError(t, err)
	assert.Contains(t, out, "(no evaluations)")

	for _, bad := range [][]string{{"--mode", "fast"}, {"--outcome", "maybe"}, {"--limit", "-1"}} {
		args := append([]string{"log", "--db", db, "--snapshot", "s1"}, bad...)
		_, err := execute(t, args...)
		require.Error(t, err, "%v", bad)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	}
}
