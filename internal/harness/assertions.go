package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/genlist/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Diff     string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Diff != "" {
		fmt.Fprintf(&buf, "  Diff (-want +got):\n%s", e.Diff)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. Empty means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertValues:
		return assertSequence(AssertValues, orEmpty(a.Values), result.Values)
	case AssertOrder:
		return assertSequence(AssertOrder, orEmpty(a.Labels), result.Order)
	case AssertCount:
		if got := len(result.Order); got != a.Count {
			return &AssertionError{
				Type:     AssertCount,
				Expected: fmt.Sprintf("%d producers", a.Count),
				Actual:   fmt.Sprintf("%d producers %v", got, result.Order),
			}
		}
		return nil
	case AssertEvents:
		return assertEventCount(result.Trace, store.EventKind(a.Kind), a.Count)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func assertSequence[T comparable](typ string, want, got []T) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprint(want),
		Actual:   fmt.Sprint(got),
		Diff:     cmp.Diff(want, got),
	}
}

func assertEventCount(trace []store.Event, kind store.EventKind, want int) error {
	got := 0
	for _, e := range trace {
		if e.Kind == kind {
			got++
		}
	}
	if got != want {
		return &AssertionError{
			Type:     AssertEvents,
			Expected: fmt.Sprintf("%d %s events", want, kind),
			Actual:   fmt.Sprintf("%d %s events", got, kind),
		}
	}
	return nil
}
