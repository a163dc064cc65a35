package arc

import (
	"errors"
	"fmt"
)

// GroupHandle addresses a group inside a Groups arena.
type GroupHandle int

// NoGroup is the handle of arcs that belong to no group.
const NoGroup GroupHandle = -1

// ErrDuplicateGroup is returned when a group name is declared twice.
var ErrDuplicateGroup = errors.New("group already declared")

// Group is a named set of arcs selected at declaration time.
type Group struct {
	Name string
	Arcs []*Arc

	// Ordinal is the 1-based declaration position.
	Ordinal int

	// Depth is the structure nesting level at which the group was first
	// referenced. Zero until referenced.
	Depth int

	Referenced bool
}

// Groups is the arena of declared groups.
type Groups struct {
	groups []*Group
	byName map[string]GroupHandle
	owner  map[int]GroupHandle
}

// NewGroups returns an empty arena.
func NewGroups() *Groups {
	return &Groups{
		byName: make(map[string]GroupHandle),
		owner:  make(map[int]GroupHandle),
	}
}

// Declare records a group over arcs. Arcs already owned by another group
// are rejected.
func (g *Groups) Declare(name string, arcs []*Arc) (GroupHandle, error) {
	if _, ok := g.byName[name]; ok {
		return NoGroup, fmt.Errorf("%q: %w", name, ErrDuplicateGroup)
	}
	h := GroupHandle(len(g.groups))
	for _, a := range arcs {
		if prev, ok := g.owner[a.ID]; ok {
			return NoGroup, fmt.Errorf("arc %s already owned by group %q", a, g.groups[prev].Name)
		}
	}
	for _, a := range arcs {
		g.owner[a.ID] = h
	}
	g.groups = append(g.groups, &Group{Name: name, Arcs: arcs, Ordinal: int(h) + 1})
	g.byName[name] = h
	return h, nil
}

// Lookup resolves a group name.
func (g *Groups) Lookup(name string) (GroupHandle, bool) {
	h, ok := g.byName[name]
	return h, ok
}

// Get returns the group behind h. It panics on an invalid handle.
func (g *Groups) Get(h GroupHandle) *Group {
	return g.groups[h]
}

// Len returns the number of declared groups.
func (g *Groups) Len() int { return len(g.groups) }

// GroupOf returns the handle of the group owning a, or NoGroup.
func (g *Groups) GroupOf(a *Arc) GroupHandle {
	if g == nil {
		return NoGroup
	}
	h, ok := g.owner[a.ID]
	if !ok {
		return NoGroup
	}
	return h
}

// MarkReferenced records that a structure uses h at depth. It reports
// false if the group was already referenced.
func (g *Groups) MarkReferenced(h GroupHandle, depth int) bool {
	gr := g.groups[h]
	if gr.Referenced {
		return false
	}
	gr.Referenced = true
	gr.Depth = depth
	return true
}

// Unreferenced returns the groups no structure used, in declaration order.
func (g *Groups) Unreferenced() []GroupHandle {
	var out []GroupHandle
	for i, gr := range g.groups {
		if !gr.Referenced {
			out = append(out, GroupHandle(i))
		}
	}
	return out
}
