package cp

import "strings"

// EventMask is a bit set of domain event kinds.
type EventMask uint32

const (
	RemoveNode EventMask = 1 << iota
	EnforceNode
	RemoveArc
	EnforceArc
	// Instantiate is raised by scalar variables that become fixed.
	Instantiate
	// Bound is raised by scalar variables whose bounds change.
	Bound
)

// FullMask asks a propagator for a coarse (non-incremental) propagation.
const FullMask EventMask = RemoveNode | EnforceNode | RemoveArc | EnforceArc | Instantiate | Bound

// Has reports whether m shares at least one bit with other.
func (m EventMask) Has(other EventMask) bool {
	return m&other != 0
}

var eventNames = []struct {
	bit  EventMask
	name string
}{
	{RemoveNode, "REMOVENODE"},
	{EnforceNode, "ENFORCENODE"},
	{RemoveArc, "REMOVEARC"},
	{EnforceArc, "ENFORCEARC"},
	{Instantiate, "INSTANTIATE"},
	{Bound, "BOUND"},
}

func (m EventMask) String() string {
	if m == 0 {
		return "NONE"
	}
	if m == FullMask {
		return "FULL"
	}
	var parts []string
	for _, e := range eventNames {
		if m&e.bit != 0 {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, "|")
}

// Priority is the static cost class of a propagator. Lower runs earlier.
type Priority int

const (
	Unary Priority = iota + 1
	Binary
	Ternary
	Linear
	Quadratic
	Cubic
	VerySlow
)

// ESat is the ternary entailment answer.
type ESat int

const (
	Undefined ESat = iota
	True
	False
)

func (e ESat) String() string {
	switch e {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "UNDEFINED"
	}
}
