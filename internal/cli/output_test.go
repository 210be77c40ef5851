package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textResult struct {
	Value string `json:"value"`
}

func (r *textResult) Text() string { return "value=" + r.Value + "\n" }

func TestFormatterSuccess(t *testing.T) {
	t.Run("text uses Text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, f.Success(&textResult{Value: "a"}))
		assert.Equal(t, "value=a\n", buf.String())
	})

	t.Run("text falls back to Println", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, f.Success("plain"))
		assert.Equal(t, "plain\n", buf.String())
	})

	t.Run("json envelope", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}
		require.NoError(t, f.Success(&textResult{Value: "a"}))

		var resp struct {
			Status string     `json:"status"`
			Data   textResult `json:"data"`
			Error  *CLIError  `json:"error"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "a", resp.Data.Value)
		assert.Nil(t, resp.Error)
	})
}

func TestFormatterFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, f.Failure(ErrCodeMismatch, "replay verification failed", &textResult{Value: "b"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	assert.NotNil(t, resp.Data)

	buf.Reset()
	f.Format = "text"
	require.NoError(t, f.Failure(ErrCodeMismatch, "ignored in text", &textResult{Value: "b"}))
	assert.Equal(t, "value=b\n", buf.String())
}

func TestFormatterError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, f.Error(ErrCodeNotFound, "graph not found", map[string]string{"path": "x"}))
	assert.Equal(t, "Error [E005]: graph not found\n", buf.String())

	buf.Reset()
	f.Verbose = true
	require.NoError(t, f.Error(ErrCodeNotFound, "graph not found", "x"))
	assert.Contains(t, buf.String(), "Details: x")
}

func TestFormatterLogger(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}

	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag}
	f.Logger().Info("quiet")
	f.Logger().Warn("loud")
	assert.NotContains(t, diag.String(), "quiet")
	assert.Contains(t, diag.String(), "loud")
	assert.Empty(t, out.String())

	diag.Reset()
	f.Verbose = true
	f.Logger().Debug("detail", "k", 1)
	assert.Contains(t, diag.String(), "detail")
	assert.Contains(t, diag.String(), "k=1")
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitSuccess, "ok")), ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open database", cause)
	assert.Equal(t, "failed to open database: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}
