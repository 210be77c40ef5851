package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: cli_smoke
description: "Folded and symbolic bounds"
graph: graph.cue
snapshot_id: smoke
checks:
  - expr: sum
    expect: "uint256:14"
    outcome: resolved
    deps: [k]
  - expr: top
    outcome: symbolic
assertions:
  - type: recorded_count
    count: 2
  - type: replay_clean
`

const failingScenario = `name: cli_broken
description: "Wrong expectation"
graph: graph.cue
checks:
  - expr: sum
    expect: "uint256:15"
`

// scenarioDir writes the shared graph and the given scenario files.
func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graph.cue"), []byte(testGraph), 0o644))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestTestCommandPasses(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"smoke.yaml": passingScenario})

	out, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cli_smoke")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailures(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"smoke.yaml":  passingScenario,
		"broken.yaml": failingScenario,
	})

	out, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)

	// Directory entries run in lexical order.
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "cli_broken", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"smoke.yaml":  passingScenario,
		"broken.yaml": failingScenario,
	})

	out, err := execute(t, "test", dir, "--filter", "smo*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
	assert.NotContains(t, out, "cli_broken")

	_, err = execute(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandBadScenarioKeepsGoing(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a_bad.yaml": "name: [unclosed",
		"smoke.yaml": passingScenario,
	})

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ a_bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
	assert.Contains(t, out, "✓ cli_smoke")
}

func TestTestCommandGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"smoke.yaml": passingScenario})
	golden := filepath.Join(t.TempDir(), "golden")

	out, err := execute(t, "test", dir, "--golden", golden)
	require.Error(t, err, "missing golden file fails")
	assert.Contains(t, out, "--update")

	out, err = execute(t, "test", dir, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cli_smoke (golden updated)")

	data, err := os.ReadFile(filepath.Join(golden, "cli_smoke.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"cli_smoke"`)
	assert.Contains(t, string(data), `"snapshot_id":"smoke"`)

	_, err = execute(t, "test", dir, "--golden", golden)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "cli_smoke.golden"), []byte("{}"), 0o644))
	out, err = execute(t, "test", dir, "--golden", golden)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandErrors(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "test", t.TempDir(), "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--update requires --golden")

	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}
