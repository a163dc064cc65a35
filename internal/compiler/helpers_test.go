package compiler

import (
	"github.com/roach88/arcflow/internal/arc"
	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/cp"
	"github.com/roach88/arcflow/internal/predicate"
	"github.com/roach88/arcflow/internal/strategy"
	"github.com/roach88/arcflow/internal/testutil"
)

// sixArcs builds three propagators over x and y. Propagator priorities are
// 1, 2 and 3, so the arcs carry pprio 1,1,2,2,3,3.
func sixArcs() []*arc.Arc {
	x := testutil.NewIntVar(0, "x", 3)
	y := testutil.NewIntVar(1, "y", 2)
	a := testutil.NewScriptedProp(0, "a", cp.Unary, nil, x, y)
	b := testutil.NewScriptedProp(1, "b", cp.Binary, nil, x, y)
	c := testutil.NewScriptedProp(2, "c", cp.Ternary, nil, x, y)
	return arc.Populate([]cp.Propagator{a, b, c})
}

func lowAndRest() []strategy.GroupDecl {
	return []strategy.GroupDecl{
		{Name: "low", Where: predicate.Compare{Attr: attr.PropPriority, Op: predicate.Le, Value: 1}},
		{Name: "rest", Where: predicate.True{}},
	}
}

func queue(iter string) strategy.Coll {
	return strategy.Coll{Type: strategy.Queue, Iter: iter}
}
