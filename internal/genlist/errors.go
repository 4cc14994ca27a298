package genlist

import (
	"errors"
	"fmt"
)

// ErrNotEmpty is returned by Attach when the list already has a head.
var ErrNotEmpty = errors.New("genlist: list is not empty")

// InvariantErrorCode categorizes invariant violations.
type InvariantErrorCode string

const (
	// ErrCodeOrderViolation means two adjacent nodes are out of order.
	ErrCodeOrderViolation InvariantErrorCode = "ORDER_VIOLATION"

	// ErrCodeCountMismatch means the cached count differs from the number of
	// reachable nodes.
	ErrCodeCountMismatch InvariantErrorCode = "COUNT_MISMATCH"

	// ErrCodeCycleDetected means a node was reached twice while walking.
	ErrCodeCycleDetected InvariantErrorCode = "CYCLE_DETECTED"

	// ErrCodeForeignGoroutine means a debug list was used from a goroutine
	// other than the one that first used it.
	ErrCodeForeignGoroutine InvariantErrorCode = "FOREIGN_GOROUTINE"
)

// InvariantError reports a broken list invariant.
//
// Check returns it as an error. In debug mode the list panics with it after
// the offending operation, which halts the caller the way an assertion does.
type InvariantError struct {
	Code    InvariantErrorCode
	Message string

	// Node is the identity of the offending node, if any.
	Node any
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("%s: %s (node=%v)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvariantError returns true if err is or wraps an *InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// InvariantCode returns the code of a wrapped *InvariantError, or "" if err
// is not one.
func InvariantCode(err error) InvariantErrorCode {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
