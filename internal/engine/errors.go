package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an engine failure during propagation.
//
// Runtime errors include:
//   - Quota exceeded: a Propagate call ran more executions than allowed
//   - Propagator failure: a propagator returned an error that is not a
//     contradiction
//
// Contradictions are never wrapped in a RuntimeError.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Prop names the propagator involved, if any.
	Prop string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying error for propagator failures.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates a Propagate call exceeded max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodePropagatorFailed indicates a propagator returned a
	// non-contradiction error.
	ErrCodePropagatorFailed RuntimeErrorCode = "PROPAGATOR_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Prop != "" {
		return fmt.Sprintf("%s: %s (run=%s, prop=%s)", e.Code, e.Message, e.RunID, e.Prop)
	}
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// IsQuotaError returns true if the error is a quota exceeded error.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	return false
}

// NewQuotaError creates a RuntimeError for quota exceeded.
func NewQuotaError(runID string, steps, maxSteps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("propagation exceeded max steps (%d > %d)", steps, maxSteps),
		RunID:   runID,
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", steps),
			"max_steps": fmt.Sprintf("%d", maxSteps),
		},
	}
}

func newPropagatorError(runID, prop string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodePropagatorFailed,
		Message: err.Error(),
		RunID:   runID,
		Prop:    prop,
		Err:     err,
	}
}
