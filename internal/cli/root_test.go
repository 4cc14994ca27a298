package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// jsonResponse is CLIResponse with the payload left raw.
type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeJSON(t *testing.T, out string, data any) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "genlist", cmd.Use)
	assert.Contains(t, cmd.Long, "producers")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"add", "next", "sweep", "retire", "list", "check", "trace", "test", "serve"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "Command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	for _, name := range []string{"config", "db", "policy", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	db := filepath.Join(t.TempDir(), "g.db")
	_, _, err := execute(t, "list", "--db", db, "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestConfigFileAndFlagOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "genlist.yaml")
	fromConfig := filepath.Join(dir, "from-config.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+fromConfig+"\nlog_level: warn\n"), 0644))

	// The config's database is used...
	_, _, err := execute(t, "add", "--config", cfgPath, "--label", "a", "--values", "1")
	require.NoError(t, err)
	assert.FileExists(t, fromConfig)

	// ...unless --db overrides it.
	override := filepath.Join(dir, "override.db")
	_, _, err = execute(t, "add", "--config", cfgPath, "--db", override, "--label", "b", "--values", "1")
	require.NoError(t, err)
	assert.FileExists(t, override)
}

func TestConfigFileMissing(t *testing.T) {
	_, _, err := execute(t, "list", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPolicyFlag(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "g.db")
	pol := filepath.Join(dir, "fifo.cue")
	require.NoError(t, os.WriteFile(pol, []byte(`order: "fifo"`), 0644))

	_, _, err := execute(t, "add", "--db", db, "--policy", pol, "--label", "low", "--priority", "1", "--values", "1")
	require.NoError(t, err)
	_, _, err = execute(t, "add", "--db", db, "--policy", pol, "--label", "high", "--priority", "9", "--values", "2")
	require.NoError(t, err)

	out, _, err := execute(t, "next", "--db", db, "--policy", pol, "--format", "json")
	require.NoError(t, err)
	var res NextResult
	decodeJSON(t, out, &res)
	assert.Equal(t, []int64{1}, res.Values, "fifo serves the first producer whatever its priority")
}

func TestPolicyFlagInvalid(t *testing.T) {
	dir := t.TempDir()
	pol := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(pol, []byte(`order: "random"`), 0644))

	_, _, err := execute(t, "list", "--db", filepath.Join(dir, "g.db"), "--policy", pol)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load policy")
}
