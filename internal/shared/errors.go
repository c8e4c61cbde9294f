// Package shared contains canonical type definitions shared across grader.
package shared //nolint:revive // internal shared package is intentional

import (
	"errors"
	"fmt"
)

// Semantic errors for grading operations.
var (
	// ErrNotFound indicates the requested vehicle, group or blob does not exist.
	ErrNotFound = errors.New("grader: not found")

	// ErrValidation indicates a missing or malformed request parameter.
	ErrValidation = errors.New("grader: invalid parameter")

	// ErrStore indicates the relational or blob store failed for a reason other than absence.
	ErrStore = errors.New("grader: store failure")
)

// ValidationError describes which parameter was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("grader: invalid %s: %s", e.Field, e.Reason)
}

// Is reports ErrValidation so callers can match on the sentinel.
func (*ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a failure returned by a backing store.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("grader: %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("grader: %s: %v", e.Op, e.Err)
}

// Is reports ErrStore so callers can match on the sentinel.
func (*StoreError) Is(target error) bool {
	return target == ErrStore
}

// Unwrap returns the underlying store error.
func (e *StoreError) Unwrap() error {
	return e.Err
}
