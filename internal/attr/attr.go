// Package attr evaluates integer attributes of arcs and schedulable units.
//
// Each Attribute carries a dynamic flag fixed in its table entry. Static
// attributes can be partitioned once at compile time; dynamic ones change
// while search proceeds and are routed through a Switcher instead.
package attr

import (
	"fmt"
	"sort"

	"github.com/roach88/arcflow/internal/arc"
)

// Attribute names a scalar property of an arc.
type Attribute int

const (
	// None marks the absence of an attribute.
	None Attribute = iota
	VarName
	VarCard
	PropName
	PropArity
	PropPriority
	PropDynPriority
	ConsName
	ConsArity
	GroupCard
	GroupPriority
	GroupDepth
)

type definition struct {
	name    string
	dynamic bool
	eval    func(a *arc.Arc, gs *arc.Groups) int
}

var table = map[Attribute]definition{
	VarName:   {"vname", false, func(a *arc.Arc, _ *arc.Groups) int { return a.Var.ID() }},
	VarCard:   {"vcard", true, func(a *arc.Arc, _ *arc.Groups) int { return a.Var.Cardinality() }},
	PropName:  {"pname", false, func(a *arc.Arc, _ *arc.Groups) int { return a.Prop.ID() }},
	PropArity: {"parity", false, func(a *arc.Arc, _ *arc.Groups) int { return len(a.Prop.Vars()) }},
	PropPriority: {"pprio", false, func(a *arc.Arc, _ *arc.Groups) int {
		return int(a.Prop.Priority())
	}},
	PropDynPriority: {"pprio-dyn", true, func(a *arc.Arc, _ *arc.Groups) int {
		return a.Prop.DynamicPriority()
	}},
	ConsName:  {"cname", false, func(a *arc.Arc, _ *arc.Groups) int { return a.Prop.Constraint() }},
	ConsArity: {"carity", false, func(a *arc.Arc, _ *arc.Groups) int { return a.ConsArity }},
	GroupCard: {"gcard", false, func(a *arc.Arc, gs *arc.Groups) int {
		if h := gs.GroupOf(a); h != arc.NoGroup {
			return len(gs.Get(h).Arcs)
		}
		return 0
	}},
	GroupPriority: {"gprio", false, func(a *arc.Arc, gs *arc.Groups) int {
		if h := gs.GroupOf(a); h != arc.NoGroup {
			return gs.Get(h).Ordinal
		}
		return 0
	}},
	GroupDepth: {"gdepth", false, func(a *arc.Arc, gs *arc.Groups) int {
		if h := gs.GroupOf(a); h != arc.NoGroup {
			return gs.Get(h).Depth
		}
		return 0
	}},
}

var byName = func() map[string]Attribute {
	m := make(map[string]Attribute, len(table))
	for a, d := range table {
		m[d.name] = a
	}
	return m
}()

// Parse resolves an attribute by name.
func Parse(name string) (Attribute, error) {
	a, ok := byName[name]
	if !ok {
		return None, fmt.Errorf("unknown attribute %q", name)
	}
	return a, nil
}

// Names lists every attribute name, sorted.
func Names() []string {
	out := make([]string, 0, len(byName))
	for n := range byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (a Attribute) String() string {
	if d, ok := table[a]; ok {
		return d.name
	}
	return "none"
}

// Defined reports whether a names an attribute of the table.
func (a Attribute) Defined() bool {
	_, ok := table[a]
	return ok
}

// IsDynamic reports whether the value can change during search.
func (a Attribute) IsDynamic() bool {
	return table[a].dynamic
}

// Eval computes the attribute for x. gs may be nil before groups exist.
// It panics on None.
func (a Attribute) Eval(x *arc.Arc, gs *arc.Groups) int {
	d, ok := table[a]
	if !ok {
		panic(fmt.Sprintf("attr: evaluating undefined attribute %d", int(a)))
	}
	return d.eval(x, gs)
}
