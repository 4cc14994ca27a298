package genlist

import "fmt"

// Outcome says what a GenerateNext call did.
type Outcome int

const (
	// Empty means the list has no producers. Nothing was called.
	Empty Outcome = iota

	// Produced means the head yielded Result.Value.
	Produced

	// Exhausted means the head had run dry and was evicted. No value was
	// produced; call GenerateNext again to pull from the new head.
	Exhausted
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case Empty:
		return "empty"
	case Produced:
		return "produced"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes a name written by MarshalText.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "empty":
		*o = Empty
	case "produced":
		*o = Produced
	case "exhausted":
		*o = Exhausted
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Result is the tagged result of GenerateNext.
//
// Value is meaningful only when Outcome is Produced. Evicted holds the id of
// the removed head only when Outcome is Exhausted.
type Result[ID comparable, V any] struct {
	Outcome Outcome
	Value   V
	Evicted ID
}

// Retry reports whether the caller should call GenerateNext again to obtain
// a value.
func (r Result[ID, V]) Retry() bool {
	return r.Outcome == Exhausted
}
