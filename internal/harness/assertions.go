package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/arcflow/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []trace.Step // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, s := range e.Trace {
		target := s.Prop
		if s.Var != "" {
			target += "@" + s.Var
		}
		fmt.Fprintf(&buf, "  [%d] %s %s %s\n", s.Seq, target, s.Mask, s.Outcome)
	}

	return buf.String()
}

// assertStepOrder checks that propagators first run in the given order.
// Executions don't need to be consecutive (intervening steps are allowed).
func assertStepOrder(steps []trace.Step, assertion Assertion) error {
	// Step 1: Find first position of each expected propagator
	positions := make(map[string]int)
	for i, s := range steps {
		if positions[s.Prop] == 0 {
			positions[s.Prop] = i + 1 // 1-indexed for readability
		}
	}

	// Step 2: Verify all propagators ran
	for _, prop := range assertion.Props {
		if positions[prop] == 0 {
			return &AssertionError{
				Type:     AssertStepOrder,
				Expected: fmt.Sprintf("all propagators run: %v", assertion.Props),
				Actual:   fmt.Sprintf("missing propagator: %s", prop),
				Trace:    steps,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Props); i++ {
		prev := assertion.Props[i-1]
		curr := assertion.Props[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertStepOrder,
				Expected: fmt.Sprintf("propagators in order: %v", assertion.Props),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: steps,
			}
		}
	}

	return nil
}

// assertStepCount checks the number of executions of a propagator, or of
// the whole run when no propagator is named.
func assertStepCount(steps []trace.Step, assertion Assertion) error {
	count := 0
	for _, s := range steps {
		if assertion.Prop == "" || s.Prop == assertion.Prop {
			count++
		}
	}

	if count != assertion.Count {
		subject := assertion.Prop
		if subject == "" {
			subject = "all propagators"
		}
		return &AssertionError{
			Type:     AssertStepCount,
			Expected: fmt.Sprintf("%d executions of %s", assertion.Count, subject),
			Actual:   fmt.Sprintf("%d executions", count),
			Trace:    steps,
		}
	}
	return nil
}

// assertNoStep checks that a propagator never runs.
func assertNoStep(steps []trace.Step, assertion Assertion) error {
	for _, s := range steps {
		if s.Prop == assertion.Prop {
			return &AssertionError{
				Type:     AssertNoStep,
				Expected: fmt.Sprintf("%s never runs", assertion.Prop),
				Actual:   fmt.Sprintf("%s ran at seq %d", assertion.Prop, s.Seq),
				Trace:    steps,
			}
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStepOrder:
			err = assertStepOrder(result.Trace, assertion)
		case AssertStepCount:
			err = assertStepCount(result.Trace, assertion)
		case AssertNoStep:
			err = assertNoStep(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
