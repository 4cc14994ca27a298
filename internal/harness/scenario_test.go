package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genlist/internal/producer"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/sweep_retire.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sweep_retire", s.Name)
	assert.Contains(t, s.Policy, `labels: ["stale"]`)
	require.Len(t, s.Steps, 7)
	assert.Equal(t, "add", s.Steps[0].Op())
	assert.Equal(t, &producer.Spec{Label: "a", Priority: 3, Values: []int64{1}}, s.Steps[0].Add)
	assert.Equal(t, "retire", s.Steps[4].Op())
	assert.Equal(t, "sweep", s.Steps[5].Op())
	assert.Equal(t, "pull", s.Steps[6].Op())
	assert.Equal(t, 1, s.Steps[6].Pull)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: disk
description: loaded from a file
steps:
  - next: 1
assertions:
  - type: count
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "next", s.Steps[0].Op())
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown top-level field", "name: x\ndescription: d\nstep: []\n", "failed to parse YAML"},
		{"unknown producer field", "name: x\ndescription: d\nsteps:\n  - add: { label: a, colour: red }\nassertions:\n  - type: count\n", "failed to parse YAML"},
		{"missing name", "description: d\nsteps:\n  - sweep: true\nassertions:\n  - type: count\n", "name is required"},
		{"missing description", "name: x\nsteps:\n  - sweep: true\nassertions:\n  - type: count\n", "description is required"},
		{"no steps", "name: x\ndescription: d\nassertions:\n  - type: count\n", "steps list is required"},
		{"no assertions", "name: x\ndescription: d\nsteps:\n  - sweep: true\n", "assertions list is required"},
		{"empty step", "name: x\ndescription: d\nsteps:\n  - pull: 0\nassertions:\n  - type: count\n", "exactly one of"},
		{"two ops in one step", "name: x\ndescription: d\nsteps:\n  - { pull: 1, sweep: true }\nassertions:\n  - type: count\n", "exactly one of"},
		{"negative repeat", "name: x\ndescription: d\nsteps:\n  - next: -1\nassertions:\n  - type: count\n", "repeat count"},
		{"assertion without type", "name: x\ndescription: d\nsteps:\n  - sweep: true\nassertions:\n  - count: 1\n", "type is required"},
		{"unknown assertion", "name: x\ndescription: d\nsteps:\n  - sweep: true\nassertions:\n  - type: vibes\n", "unknown assertion type"},
		{"events without kind", "name: x\ndescription: d\nsteps:\n  - sweep: true\nassertions:\n  - type: events\n", "kind is required"},
		{"negative count", "name: x\ndescription: d\nsteps:\n  - sweep: true\nassertions:\n  - type: count\n    count: -1\n", "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
