package generator

import (
	"github.com/roach88/arcflow/internal/arc"
	"github.com/roach88/arcflow/internal/attr"
)

// Generator is a composite unit: Queue, Sort, Heap or SwitchCase.
type Generator interface {
	Unit

	// ProcessOne executes exactly one ready unit, if any.
	ProcessOne(rt Runtime) (bool, error)

	// ProcessToFixpoint executes the generator until nothing below it is
	// ready. For the one and while-one policies this loops over ProcessOne.
	ProcessToFixpoint(rt Runtime) (bool, error)

	Units() []Unit
	Policy() Policy
	Kind() Kind

	// AttachKey sets the combined attribute a parent orders this
	// generator by.
	AttachKey(c *attr.Combined, gs *arc.Groups)
	KeyAttr() *attr.Combined
}

type selfUnit interface {
	Unit
	waker
}

// genBase holds the state shared by the generator variants.
type genBase struct {
	unitBase

	self    selfUnit
	units   []Unit
	pending []Unit
	policy  Policy
	key     *attr.Combined
	gs      *arc.Groups
}

func (g *genBase) init(self selfUnit, units []Unit, p Policy) {
	g.self = self
	g.units = units
	g.policy = p
	for _, u := range units {
		u.base().owner = self
	}
}

func (g *genBase) Arc() *arc.Arc { return nil }
func (g *genBase) NumChildren() int { return len(g.units) }
func (g *genBase) Child(i int) attr.Node { return g.units[i] }
func (g *genBase) Units() []Unit { return g.units }
func (g *genBase) Policy() Policy { return g.policy }
func (g *genBase) KeyAttr() *attr.Combined { return g.key }

func (g *genBase) AttachKey(c *attr.Combined, gs *arc.Groups) {
	g.key = c
	g.gs = gs
}

func (g *genBase) Key() (int, bool) {
	if g.key == nil {
		return 0, false
	}
	return g.key.Eval(g.self, g.gs)
}

// wake appends a newly pending unit and propagates readiness upward.
func (g *genBase) wake(u Unit) {
	g.pending = append(g.pending, u)
	g.signal(g.self)
}

// prune drops units that no longer have work.
func (g *genBase) prune() {
	kept := g.pending[:0]
	for _, u := range g.pending {
		if u.Pending() {
			kept = append(kept, u)
		} else {
			u.base().queued = false
		}
	}
	clear(g.pending[len(kept):])
	g.pending = kept
}

func (g *genBase) Pending() bool {
	g.prune()
	return len(g.pending) > 0
}

func (g *genBase) Ready() bool {
	g.prune()
	for _, u := range g.pending {
		if u.Ready() {
			return true
		}
	}
	return false
}

func (g *genBase) flush() {
	for _, u := range g.units {
		u.flush()
	}
	clear(g.pending)
	g.pending = g.pending[:0]
	g.queued = false
}

// loop applies the one and while-one policies on top of processOne.
func (g *genBase) loop(rt Runtime, processOne func(Runtime) (bool, error)) (bool, error) {
	if g.policy == One {
		return processOne(rt)
	}
	changed := false
	for g.self.Ready() {
		c, err := processOne(rt)
		changed = changed || c
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (g *genBase) ProcessToFixpoint(rt Runtime) (bool, error) {
	changed := false
	for g.self.Ready() {
		c, err := g.self.Execute(rt)
		changed = changed || c
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func checkUnits(units []Unit) error {
	if len(units) == 0 {
		return ErrEmpty
	}
	return nil
}
