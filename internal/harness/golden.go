package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/genlist/internal/canonical"
	"github.com/roach88/genlist/internal/store"
)

// TraceSnapshot is the golden form of a run: the scenario name and its
// event trace.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []store.Event
}

// toCanonicalMap converts the snapshot for canonical JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		m := map[string]any{
			"seq":         e.Seq,
			"kind":        string(e.Kind),
			"producer_id": e.ProducerID,
			"label":       e.Label,
		}
		if e.Value != nil {
			m["value"] = *e.Value
		}
		trace[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
}

// MarshalTrace returns the canonical JSON of a scenario trace.
func MarshalTrace(name string, trace []store.Event) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: name, Trace: trace}
	return canonical.Marshal(snapshot.toCanonicalMap())
}

// TraceHash returns the content hash of a scenario trace.
func TraceHash(name string, trace []store.Event) (string, error) {
	data, err := MarshalTrace(name, trace)
	if err != nil {
		return "", err
	}
	return canonical.HashBytes(canonical.DomainTrace, data), nil
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
