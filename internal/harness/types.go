package harness

import "github.com/roach88/genlist/internal/store"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace is the event log in seq order.
	Trace []store.Event `json:"trace"`

	// Values are the produced values in order.
	Values []int64 `json:"values"`

	// Order is the final list, head first, by label.
	Order []string `json:"order"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []store.Event{},
		Values: []int64{},
		Order:  []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
