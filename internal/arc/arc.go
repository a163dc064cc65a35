// Package arc enumerates the (variable, propagator) relationships of a model
// and partitions them into named groups.
//
// Populate builds every arc once, in propagator-then-variable order. Groups
// then claim arcs from a shrinking Pool in declaration order; an arc belongs
// to at most one group. Groups are stored in an arena and addressed by
// GroupHandle so nothing resolves names after compilation.
package arc

import (
	"fmt"

	"github.com/roach88/arcflow/internal/cp"
)

// Arc states that Prop reacts to Var. Arcs are immutable.
type Arc struct {
	// ID is the position of the arc in the populate order.
	ID int

	Var  cp.Variable
	Prop cp.Propagator

	// VarIndex is the position of Var in Prop.Vars().
	VarIndex int

	// ConsArity is the number of distinct variables across every propagator
	// of Prop's constraint.
	ConsArity int
}

func (a *Arc) String() string {
	return fmt.Sprintf("%s/%s", a.Prop.Name(), a.Var.Name())
}

// Populate creates one arc per (propagator, variable) slot.
func Populate(props []cp.Propagator) []*Arc {
	arity := constraintArity(props)
	var arcs []*Arc
	for _, p := range props {
		for i, v := range p.Vars() {
			arcs = append(arcs, &Arc{
				ID:        len(arcs),
				Var:       v,
				Prop:      p,
				VarIndex:  i,
				ConsArity: arity[p.Constraint()],
			})
		}
	}
	return arcs
}

func constraintArity(props []cp.Propagator) map[int]int {
	seen := make(map[int]map[int]struct{})
	for _, p := range props {
		vs, ok := seen[p.Constraint()]
		if !ok {
			vs = make(map[int]struct{})
			seen[p.Constraint()] = vs
		}
		for _, v := range p.Vars() {
			vs[v.ID()] = struct{}{}
		}
	}
	out := make(map[int]int, len(seen))
	for c, vs := range seen {
		out[c] = len(vs)
	}
	return out
}

// Pool holds the arcs not yet claimed by a group, in populate order.
type Pool struct {
	arcs []*Arc
}

// NewPool creates a pool over arcs. The slice is copied.
func NewPool(arcs []*Arc) *Pool {
	p := &Pool{arcs: make([]*Arc, len(arcs))}
	copy(p.arcs, arcs)
	return p
}

// Arcs returns the remaining arcs. Callers must not modify the slice.
func (p *Pool) Arcs() []*Arc { return p.arcs }

// Len returns the number of remaining arcs.
func (p *Pool) Len() int { return len(p.arcs) }

// Remove drops claimed arcs, keeping the order of the others.
func (p *Pool) Remove(claimed []*Arc) {
	if len(claimed) == 0 {
		return
	}
	drop := make(map[int]struct{}, len(claimed))
	for _, a := range claimed {
		drop[a.ID] = struct{}{}
	}
	kept := p.arcs[:0]
	for _, a := range p.arcs {
		if _, ok := drop[a.ID]; !ok {
			kept = append(kept, a)
		}
	}
	clear(p.arcs[len(kept):])
	p.arcs = kept
}
