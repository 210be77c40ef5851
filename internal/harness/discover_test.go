package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "C.YAML"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))
	single := filepath.Join(dir, "notes.txt")

	got, err := FindScenarios([]string{single, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		single,
		filepath.Join(dir, "C.YAML"),
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
	}, got)
}

func TestFindScenariosMissing(t *testing.T) {
	_, err := FindScenarios([]string{filepath.Join(t.TempDir(), "gone")})
	require.Error(t, err)

	var nf *ScenarioNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Contains(t, err.Error(), "does not exist")
}
