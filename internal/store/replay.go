package store

import (
	"fmt"

	"github.com/roach88/arcflow/internal/trace"
)

// Comparison describes how two traces relate.
type Comparison struct {
	// Equal is true when both traces have the same steps.
	Equal bool

	// Index is the position of the first differing step, or -1.
	Index int

	// Want and Got are the differing steps at Index. One of them is nil
	// when a trace is a prefix of the other.
	Want *trace.Step
	Got  *trace.Step
}

// String renders the divergence for CLI output.
func (c Comparison) String() string {
	if c.Equal {
		return "traces are identical"
	}
	return fmt.Sprintf("diverged at step %d: want %s, got %s", c.Index, describeStep(c.Want), describeStep(c.Got))
}

func describeStep(s *trace.Step) string {
	if s == nil {
		return "<end of trace>"
	}
	if s.Var == "" {
		return fmt.Sprintf("%s [%s] %s", s.Prop, s.Mask, s.Outcome)
	}
	return fmt.Sprintf("%s@%s [%s] %s", s.Prop, s.Var, s.Mask, s.Outcome)
}

// CompareSteps finds the first step where got departs from want.
// Steps are compared on every field, seq included.
func CompareSteps(want, got []trace.Step) Comparison {
	n := min(len(want), len(got))
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return Comparison{Index: i, Want: &want[i], Got: &got[i]}
		}
	}
	switch {
	case len(want) > n:
		return Comparison{Index: n, Want: &want[n]}
	case len(got) > n:
		return Comparison{Index: n, Got: &got[n]}
	}
	return Comparison{Equal: true, Index: -1}
}
