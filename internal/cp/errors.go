package cp

import (
	"errors"
	"fmt"
)

// ContradictionError reports that a propagator detected an unsatisfiable
// domain state. It is the normal failure outcome of propagation, consumed by
// search to backtrack.
type ContradictionError struct {
	// Var is the variable whose domain would become inconsistent. May be nil.
	Var Variable

	// Prop is the propagator that detected the failure. May be nil when the
	// failure comes from an external decision.
	Prop Propagator

	Message string
}

// Error implements the error interface.
func (e *ContradictionError) Error() string {
	switch {
	case e.Prop != nil && e.Var != nil:
		return fmt.Sprintf("contradiction: %s (prop=%s, var=%s)", e.Message, e.Prop.Name(), e.Var.Name())
	case e.Var != nil:
		return fmt.Sprintf("contradiction: %s (var=%s)", e.Message, e.Var.Name())
	case e.Prop != nil:
		return fmt.Sprintf("contradiction: %s (prop=%s)", e.Message, e.Prop.Name())
	}
	return "contradiction: " + e.Message
}

// Contradiction builds a *ContradictionError.
func Contradiction(v Variable, p Propagator, format string, args ...any) *ContradictionError {
	return &ContradictionError{Var: v, Prop: p, Message: fmt.Sprintf(format, args...)}
}

// IsContradiction returns true if err is or wraps a *ContradictionError.
func IsContradiction(err error) bool {
	var ce *ContradictionError
	return errors.As(err, &ce)
}

// AsContradiction extracts the contradiction from err.
func AsContradiction(err error) (*ContradictionError, bool) {
	var ce *ContradictionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
