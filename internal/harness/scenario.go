package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/genlist/internal/producer"
)

// Scenario is a scripted run against a pool.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy is inline CUE policy source. Empty means the default policy.
	Policy string `yaml:"policy,omitempty"`

	// Steps run in order. A failing step aborts the run.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one pool operation. Exactly one field is set.
type Step struct {
	Add    *producer.Spec `yaml:"add,omitempty"`
	Next   int            `yaml:"next,omitempty"`
	Pull   int            `yaml:"pull,omitempty"`
	Retire string         `yaml:"retire,omitempty"`
	Sweep  bool           `yaml:"sweep,omitempty"`
}

// Op names the operation the step performs.
func (s Step) Op() string {
	switch {
	case s.Add != nil:
		return "add"
	case s.Next > 0:
		return "next"
	case s.Pull > 0:
		return "pull"
	case s.Retire != "":
		return "retire"
	case s.Sweep:
		return "sweep"
	default:
		return ""
	}
}

func (s Step) fieldsSet() int {
	n := 0
	for _, set := range []bool{s.Add != nil, s.Next != 0, s.Pull != 0, s.Retire != "", s.Sweep} {
		if set {
			n++
		}
	}
	return n
}

// Assertion validates the final state or the trace.
type Assertion struct {
	// Type is one of: values, order, count, events.
	Type string `yaml:"type"`

	// Values is the expected sequence of produced values (values).
	Values []int64 `yaml:"values,omitempty"`

	// Labels is the expected list order, head first (order).
	Labels []string `yaml:"labels,omitempty"`

	// Count is the expected list length (count) or event count (events).
	Count int `yaml:"count,omitempty"`

	// Kind selects the event kind to count (events).
	Kind string `yaml:"kind,omitempty"`
}

// Assertion type constants.
const (
	AssertValues = "values"
	AssertOrder  = "order"
	AssertCount  = "count"
	AssertEvents = "events"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Next < 0 || step.Pull < 0 {
			return fmt.Errorf("steps[%d]: repeat count must be positive", i)
		}
		if step.fieldsSet() != 1 {
			return fmt.Errorf("steps[%d]: exactly one of add, next, pull, retire, sweep is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertValues, AssertOrder:
		// An empty list is a valid expectation.
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertEvents:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for events", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
