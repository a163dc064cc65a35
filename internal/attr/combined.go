package attr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/arcflow/internal/arc"
)

// Op is a reduction applied over the children of a composite unit.
type Op int

const (
	Any Op = iota + 1
	Min
	Max
	Sum
	Size
)

var opNames = map[Op]string{Any: "any", Min: "min", Max: "max", Sum: "sum", Size: "size"}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// ParseOp resolves a reduction by name.
func ParseOp(name string) (Op, error) {
	for o, n := range opNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown attribute operator %q", name)
}

// ErrWrongKey is returned for a combined attribute without operators or leaf.
var ErrWrongKey = errors.New("wrong key declaration")

// Node is the view of a schedulable unit that combined keys are read from.
// A leaf exposes its arc and no children.
type Node interface {
	Arc() *arc.Arc
	NumChildren() int
	Child(i int) Node

	// Key is the unit's own key, if it has one.
	Key() (int, bool)
}

// Combined is a chain of reductions ending in an optional leaf attribute.
//
// The first operator reduces over the children of the evaluated unit, each
// child being evaluated with the rest of the chain. Once the chain is used
// up an arc answers with Leaf and a composite answers with its own key, or
// with the Leaf attribute of its first arc when Leaf is set.
type Combined struct {
	Ops  []Op
	Leaf Attribute
}

// NewCombined validates and returns a combined attribute.
func NewCombined(leaf Attribute, ops ...Op) (*Combined, error) {
	if len(ops) == 0 && leaf == None {
		return nil, ErrWrongKey
	}
	return &Combined{Ops: ops, Leaf: leaf}, nil
}

// Of wraps a single attribute.
func Of(a Attribute) *Combined {
	return &Combined{Leaf: a}
}

// IsDynamic reports whether the key depends on a dynamic leaf attribute.
// Size-only chains depend on the static tree shape.
func (c *Combined) IsDynamic() bool {
	return c != nil && c.Leaf.IsDynamic()
}

func (c *Combined) String() string {
	if c == nil {
		return "none"
	}
	parts := make([]string, 0, len(c.Ops)+1)
	for _, o := range c.Ops {
		parts = append(parts, o.String())
	}
	if c.Leaf != None {
		parts = append(parts, c.Leaf.String())
	}
	return strings.Join(parts, " ")
}

// Eval computes the key of n. The boolean is false when no value can be
// derived, for example a leaf without attribute and without its own key.
func (c *Combined) Eval(n Node, gs *arc.Groups) (int, bool) {
	return c.eval(n, 0, gs)
}

func (c *Combined) eval(n Node, depth int, gs *arc.Groups) (int, bool) {
	if a := n.Arc(); a != nil {
		if c.Leaf != None {
			return c.Leaf.Eval(a, gs), true
		}
		return n.Key()
	}
	if depth == len(c.Ops) {
		if c.Leaf != None && n.NumChildren() > 0 {
			return c.eval(n.Child(0), depth, gs)
		}
		return n.Key()
	}

	op := c.Ops[depth]
	if op == Size {
		return n.NumChildren(), true
	}
	if n.NumChildren() == 0 {
		return 0, false
	}
	if op == Any {
		return c.eval(n.Child(0), depth+1, gs)
	}

	acc, ok := 0, false
	for i := 0; i < n.NumChildren(); i++ {
		v, has := c.eval(n.Child(i), depth+1, gs)
		if !has {
			continue
		}
		if !ok {
			acc, ok = v, true
			continue
		}
		switch op {
		case Min:
			acc = min(acc, v)
		case Max:
			acc = max(acc, v)
		case Sum:
			acc += v
		}
	}
	return acc, ok
}
