package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileText(t *testing.T) {
	path := writeGraph(t, testGraph)

	out, err := execute(t, "compile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "vars:")
	assert.Contains(t, out, "x uint8")
	assert.Contains(t, out, "symbolic")
	assert.Contains(t, out, "k = uint256:7")
	assert.Contains(t, out, "exprs:")
	assert.Contains(t, out, "sum = (k.range_min + k.range_max)")
}

func TestCompileJSONAndOutputFile(t *testing.T) {
	path := writeGraph(t, testGraph)
	outFile := filepath.Join(t.TempDir(), "compiled.json")

	out, err := execute(t, "compile", path, "--format", "json", "-o", outFile)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Vars, 3)
	assert.Len(t, resp.Data.Exprs, 3)

	kinds := map[string]string{}
	for _, v := range resp.Data.Vars {
		kinds[v.Name] = v.Kind
	}
	assert.Equal(t, map[string]string{"x": "builtin", "n": "builtin", "k": "concrete"}, kinds)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var written CompilationResult
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, resp.Data, written)
}

func TestCompileDirectory(t *testing.T) {
	path := writeGraph(t, testGraph)

	out, err := execute(t, "compile", filepath.Dir(path))
	require.NoError(t, err)
	assert.Contains(t, out, "scaled = ")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		exitCode int
		code     string
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return "/nonexistent/graph.cue" },
			exitCode: ExitCommandError,
			code:     ErrCodeNotFound,
		},
		{
			name:     "empty directory",
			path:     func(t *testing.T) string { return t.TempDir() },
			exitCode: ExitCommandError,
			code:     ErrCodeNoFiles,
		},
		{
			name: "unknown variable",
			path: func(t *testing.T) string {
				return writeGraph(t, `exprs: bad: {ref: "ghost", side: "min"}`)
			},
			exitCode: ExitCommandError,
			code:     "E203",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "compile", tt.path(t))
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestValidateValidGraph(t *testing.T) {
	path := writeGraph(t, testGraph)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ graph is valid (3 vars, 3 exprs)")
}

func TestValidateProblems(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"inverted range", `vars: x: {range: {min: 9, max: 3}}`, "E101"},
		{"cue syntax", `vars: {`, "E211"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeGraph(t, tt.src)

			out, err := execute(t, "validate", path, "--format", "json")
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp struct {
				Status string           `json:"status"`
				Data   ValidationResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.False(t, resp.Data.Valid)
			require.NotEmpty(t, resp.Data.Errors)
			assert.Equal(t, tt.code, resp.Data.Errors[0].Code)
		})
	}
}

func TestValidateMissingGraph(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/graph.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "not found")
}

func TestDeps(t *testing.T) {
	path := writeGraph(t, testGraph)

	out, err := execute(t, "deps", path, "--expr", "sum", "--all")
	require.NoError(t, err)
	assert.Equal(t, "sum: k\n  refs: k, k\n", out)

	out, err = execute(t, "deps", path, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data DepsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	deps := map[string][]string{}
	for _, e := range resp.Data.Results {
		deps[e.Name] = e.Deps
	}
	assert.Equal(t, map[string][]string{"sum": {"k"}, "top": {"x"}, "scaled": {"n"}}, deps)
}

func TestDepsUnknownExpr(t *testing.T) {
	path := writeGraph(t, testGraph)

	_, err := execute(t, "deps", path, "--expr", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown expression "missing"`)
}
