package testutil

import "github.com/roach88/arcflow/internal/cp"

// IntVar is a scalar variable whose domain is modeled only by its size.
//
// Shrink narrows the domain and reports Bound (and Instantiate when one value
// remains) to the observing notifier. Shrinking to zero is a contradiction.
type IntVar struct {
	id   int
	name string
	card int
	n    cp.Notifier
}

// NewIntVar creates a variable with the given domain size.
func NewIntVar(id int, name string, card int) *IntVar {
	return &IntVar{id: id, name: name, card: card}
}

func (v *IntVar) ID() int { return v.id }
func (v *IntVar) Name() string { return v.name }
func (v *IntVar) Cardinality() int { return v.card }
func (v *IntVar) Instantiated() bool { return v.card == 1 }
func (v *IntVar) Observe(n cp.Notifier) { v.n = n }
func (v *IntVar) Notifier() cp.Notifier { return v.n }

// Shrink removes by values from the domain on behalf of cause.
// It reports whether the domain changed.
func (v *IntVar) Shrink(by int, cause cp.Propagator) (bool, error) {
	if by <= 0 {
		return false, nil
	}
	if v.card-by < 1 {
		return false, cp.Contradiction(v, cause, "domain of %s wiped out", v.name)
	}
	v.card -= by
	mask := cp.Bound
	if v.card == 1 {
		mask |= cp.Instantiate
	}
	if v.n != nil {
		v.n.Notify(v, mask, cause)
	}
	return true, nil
}
