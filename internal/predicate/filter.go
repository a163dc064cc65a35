package predicate

import (
	"fmt"

	"github.com/roach88/arcflow/internal/arc"
)

// Eval reports whether a satisfies p. gs resolves MemberOf and
// group-derived attributes.
func Eval(p Predicate, a *arc.Arc, gs *arc.Groups) bool {
	switch p := p.(type) {
	case True:
		return true
	case Compare:
		return p.Op.apply(p.Attr.Eval(a, gs), p.Value)
	case MemberOf:
		h := gs.GroupOf(a)
		if h == arc.NoGroup {
			return false
		}
		name := gs.Get(h).Name
		for _, g := range p.Groups {
			if g == name {
				return true
			}
		}
		return false
	case Not:
		return !Eval(p.P, a, gs)
	case And:
		for _, q := range p.Predicates {
			if !Eval(q, a, gs) {
				return false
			}
		}
		return true
	case Or:
		for _, q := range p.Predicates {
			if Eval(q, a, gs) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("predicate: unhandled type %T", p))
}

// Filter returns the pool arcs that satisfy p, in pool order.
func Filter(p Predicate, pool *arc.Pool, gs *arc.Groups) []*arc.Arc {
	var out []*arc.Arc
	for _, a := range pool.Arcs() {
		if Eval(p, a, gs) {
			out = append(out, a)
		}
	}
	return out
}
