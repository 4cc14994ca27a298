package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success(map[string]string{"id": "p-1"}, func(w io.Writer) {
		t.Fatal("text renderer called in JSON mode")
	})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"id": "p-1"}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeNotFound, "producer not found", map[string]string{"id": "x"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E002", resp.Error.Code)
	assert.Equal(t, "producer not found", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("plain", nil))
	assert.Equal(t, "plain\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success(42, func(w io.Writer) { fmt.Fprint(w, "rendered") }))
	assert.Equal(t, "rendered", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E001", "boom", "hidden"))
	assert.Equal(t, "Error [E001]: boom\n", buf.String())

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("E001", "boom", "shown"))
	assert.Contains(t, buf.String(), "Details: shown")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	formatter.VerboseLog("quiet %d", 1)
	assert.Empty(t, errOut.String())

	formatter.Verbose = true
	formatter.VerboseLog("loud %d", 2)
	assert.Equal(t, "loud 2\n", errOut.String())
	assert.Empty(t, out.String(), "diagnostics must not corrupt JSON output")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "inner", errors.New("cause")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "outer: inner: cause", wrapped.Error())
}
