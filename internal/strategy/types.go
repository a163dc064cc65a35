package strategy

import (
	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/predicate"
)

// Description is a complete strategy declaration.
type Description struct {
	Groups []GroupDecl

	// Structure is nil when only groups are declared; the engine then
	// falls back to its default schedule.
	Structure Element
}

// GroupDecl binds Name to the arcs matching Where at declaration time.
type GroupDecl struct {
	Name  string
	Where predicate.Predicate
}

// Element is a member of a structure. Only types in this package
// implement it.
type Element interface {
	elementNode()
}

// GroupRef places the arcs of a group as leaves. Key, when set, is
// attached to every arc.
type GroupRef struct {
	Name string
	Key  attr.Attribute
}

func (GroupRef) elementNode() {}

// Struct builds one generator over all its elements. Key is the combined
// attribute the parent orders this generator by.
type Struct struct {
	Elements []Element
	Key      *attr.Combined
	Coll     Coll
}

func (*Struct) elementNode() {}

// Reg re-instantiates a declared group through a partition and wraps the
// resulting generators in Coll.
type Reg struct {
	Group string

	// ArcKey is attached to every arc of the group, like GroupRef.Key.
	ArcKey attr.Attribute

	Partition Partition
	Key       *attr.Combined
	Coll      Coll
}

func (*Reg) elementNode() {}

// Partition splits a list of arcs into several generators.
type Partition interface {
	partitionNode()
}

// Many builds one generator per distinct value of By (static attribute),
// or a Switcher with one case per value (dynamic attribute).
type Many struct {
	By   attr.Attribute
	Key  *attr.Combined
	Coll Coll
}

func (*Many) partitionNode() {}

// Each partitions by a dynamic attribute, applies Inner within every part
// and wraps each part's generators in Coll.
type Each struct {
	By    attr.Attribute
	Key   *attr.Combined
	Inner Partition
	Coll  Coll
}

func (*Each) partitionNode() {}

// CollType selects the generator variant.
type CollType string

const (
	Queue CollType = "queue"
	List  CollType = "list"
	Heap  CollType = "heap"
)

// Iteration policies, named as in the generator package.
const (
	IterOne      = "one"
	IterWhileOne = "while-one"
	IterFor      = "for"
	IterWhileFor = "while-for"
)

// Heap orders.
const (
	OrderMin = "min"
	OrderMax = "max"
)

// Coll describes the collection wrapping a set of units.
type Coll struct {
	Type CollType
	Iter string

	// Reverse flips a list.
	Reverse bool

	// Order is min or max for heaps.
	Order string
}
