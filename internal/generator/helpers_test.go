package generator

import (
	"fmt"

	"github.com/roach88/arcflow/internal/arc"
	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/cp"
	"github.com/roach88/arcflow/internal/testutil"
)

// fakeRuntime records fired leaves and counts every firing as a change
// unless quiet is set.
type fakeRuntime struct {
	changes uint64
	runs    uint64
	quiet   bool
	fired   []string
	onFire  func(l *Leaf, mask cp.EventMask) error
}

func (r *fakeRuntime) Fire(l *Leaf, mask cp.EventMask) error {
	r.fired = append(r.fired, l.String())
	r.runs++
	if !r.quiet {
		r.changes++
	}
	if r.onFire != nil {
		return r.onFire(l, mask)
	}
	return nil
}

func (r *fakeRuntime) Changes() uint64 { return r.changes }
func (r *fakeRuntime) Executions() uint64 { return r.runs }

// fixture builds one propagator per variable, so arc i is p<i>/x<i>.
type fixture struct {
	vars   []*testutil.IntVar
	props  []*testutil.ScriptedProp
	arcs   []*arc.Arc
	leaves []*Leaf
}

func newFixture(key attr.Attribute, cards ...int) *fixture {
	f := &fixture{}
	var props []cp.Propagator
	for i, c := range cards {
		v := testutil.NewIntVar(i, fmt.Sprintf("x%d", i), c)
		p := testutil.NewScriptedProp(i, fmt.Sprintf("p%d", i), cp.Priority(1+i%3), nil, v)
		f.vars = append(f.vars, v)
		f.props = append(f.props, p)
		props = append(props, p)
	}
	f.arcs = arc.Populate(props)
	for _, a := range f.arcs {
		f.leaves = append(f.leaves, NewLeaf(a, key, nil))
	}
	return f
}

func (f *fixture) units() []Unit {
	out := make([]Unit, len(f.leaves))
	for i, l := range f.leaves {
		out[i] = l
	}
	return out
}

func (f *fixture) scheduleAll() {
	for _, l := range f.leaves {
		l.Schedule(cp.FullMask)
	}
}

func names(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = fmt.Sprint(u)
	}
	return out
}
