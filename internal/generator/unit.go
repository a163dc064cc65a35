package generator

import (
	"github.com/roach88/arcflow/internal/arc"
	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/cp"
)

// Runtime executes leaves on behalf of the generator tree.
type Runtime interface {
	// Fire runs the leaf's propagator for the consumed event mask.
	Fire(l *Leaf, mask cp.EventMask) error

	// Changes counts domain changes so far. Generators compare it across an
	// execution to learn whether anything changed.
	Changes() uint64

	// Executions counts propagator executions so far. A dynamic key such
	// as pprio-dyn may move on any execution even when no domain changed.
	Executions() uint64
}

// Unit is a schedulable element of a generator: a Leaf or a Generator.
// Only types in this package implement it.
type Unit interface {
	attr.Node

	// Ready reports whether the unit has work that can run now.
	Ready() bool

	// Pending reports whether the unit has work at all. A pending unit may
	// be held back by a Switcher gate.
	Pending() bool

	// Execute runs the unit: a leaf fires its propagator, a generator
	// applies its iteration policy. It reports whether a domain changed.
	Execute(rt Runtime) (bool, error)

	base() *unitBase
	flush()
}

// waker receives readiness notifications from owned units.
type waker interface {
	wake(u Unit)
}

type unitBase struct {
	owner waker

	// queued is true while the unit sits in its owner's pending list.
	queued bool
}

func (b *unitBase) base() *unitBase { return b }

func (b *unitBase) signal(self Unit) {
	if b.queued || b.owner == nil {
		return
	}
	b.queued = true
	b.owner.wake(self)
}

// Leaf wraps one arc. Its pending mask accumulates the events the
// propagator has not consumed yet.
type Leaf struct {
	unitBase

	arc  *arc.Arc
	key  attr.Attribute
	gs   *arc.Groups
	mask cp.EventMask
	gate *Switcher
}

// NewLeaf creates a leaf for a. key may be attr.None.
func NewLeaf(a *arc.Arc, key attr.Attribute, gs *arc.Groups) *Leaf {
	return &Leaf{arc: a, key: key, gs: gs}
}

// Arc returns the wrapped arc.
func (l *Leaf) Arc() *arc.Arc { return l.arc }

// Mask returns the pending event mask.
func (l *Leaf) Mask() cp.EventMask { return l.mask }

func (l *Leaf) NumChildren() int { return 0 }
func (l *Leaf) Child(int) attr.Node { return nil }

// Key evaluates the leaf's key attribute.
func (l *Leaf) Key() (int, bool) {
	if l.key == attr.None {
		return 0, false
	}
	return l.key.Eval(l.arc, l.gs), true
}

// Schedule adds events to the pending mask and wakes the owner.
func (l *Leaf) Schedule(mask cp.EventMask) {
	if mask == 0 {
		return
	}
	l.mask |= mask
	l.signal(l)
}

func (l *Leaf) Pending() bool { return l.mask != 0 }

func (l *Leaf) Ready() bool {
	return l.mask != 0 && (l.gate == nil || l.gate.admits(l))
}

// Execute consumes the pending mask and fires the propagator.
func (l *Leaf) Execute(rt Runtime) (bool, error) {
	mask := l.mask
	l.mask = 0
	before := rt.Changes()
	err := rt.Fire(l, mask)
	return rt.Changes() != before, err
}

func (l *Leaf) flush() {
	l.mask = 0
	l.queued = false
}

func (l *Leaf) String() string { return l.arc.String() }
