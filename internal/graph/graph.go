package graph

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/roach88/arcflow/internal/cp"
)

// Element is a node (J < 0) or an undirected edge of a graph.
type Element struct {
	I, J int
}

// Node returns the element for node i.
func Node(i int) Element { return Element{I: i, J: -1} }

// Edge returns the element for edge {i, j}.
func Edge(i, j int) Element { return Element{I: i, J: j} }

// IsEdge reports whether e is an edge.
func (e Element) IsEdge() bool { return e.J >= 0 }

func (e Element) String() string {
	if e.IsEdge() {
		return fmt.Sprintf("(%d,%d)", e.I, e.J)
	}
	return fmt.Sprintf("%d", e.I)
}

// Domain is the envelope/kernel contract propagators filter through.
// Both operations report whether the domain changed.
type Domain interface {
	cp.Variable
	ShrinkEnvelope(e Element, cause cp.Propagator) (bool, error)
	GrowKernel(e Element, cause cp.Propagator) (bool, error)
}

// UndirectedGraph is a graph variable over nodes 0..n-1.
type UndirectedGraph struct {
	id   int
	name string
	n    int

	envNodes *bitset.BitSet
	kerNodes *bitset.BitSet
	envAdj   []*bitset.BitSet
	kerAdj   []*bitset.BitSet
	envEdges int
	kerEdges int

	notifier cp.Notifier
	log      []delta
}

var _ Domain = (*UndirectedGraph)(nil)

// NewUndirected creates a graph whose envelope holds nodes 0..n-1 and no
// edges. Use AddEdge and the kernel setters to build the initial domain.
func NewUndirected(id int, name string, n int) *UndirectedGraph {
	g := &UndirectedGraph{
		id:       id,
		name:     name,
		n:        n,
		envNodes: bitset.New(uint(n)),
		kerNodes: bitset.New(uint(n)),
		envAdj:   make([]*bitset.BitSet, n),
		kerAdj:   make([]*bitset.BitSet, n),
	}
	for i := 0; i < n; i++ {
		g.envNodes.Set(uint(i))
		g.envAdj[i] = bitset.New(uint(n))
		g.kerAdj[i] = bitset.New(uint(n))
	}
	return g
}

func (g *UndirectedGraph) ID() int { return g.id }
func (g *UndirectedGraph) Name() string { return g.name }
func (g *UndirectedGraph) Observe(n cp.Notifier) { g.notifier = n }

// NumNodes returns the size of the node universe.
func (g *UndirectedGraph) NumNodes() int { return g.n }

// Cardinality is one plus the number of undecided nodes and edges.
func (g *UndirectedGraph) Cardinality() int {
	nodes := int(g.envNodes.Count() - g.kerNodes.Count())
	return 1 + nodes + g.envEdges - g.kerEdges
}

// Instantiated reports whether kernel and envelope coincide.
func (g *UndirectedGraph) Instantiated() bool { return g.Cardinality() == 1 }

func (g *UndirectedGraph) check(i int) error {
	if i < 0 || i >= g.n {
		return fmt.Errorf("graph %s: node %d out of range [0,%d)", g.name, i, g.n)
	}
	return nil
}

// AddEdge adds {i, j} to the envelope. Used while building the model.
func (g *UndirectedGraph) AddEdge(i, j int) error {
	if err := g.check(i); err != nil {
		return err
	}
	if err := g.check(j); err != nil {
		return err
	}
	if i == j {
		return fmt.Errorf("graph %s: self loop on %d", g.name, i)
	}
	if !g.envAdj[i].Test(uint(j)) {
		g.envAdj[i].Set(uint(j))
		g.envAdj[j].Set(uint(i))
		g.envEdges++
	}
	return nil
}

// EnvelopeHasNode reports whether node i may still be in the graph.
func (g *UndirectedGraph) EnvelopeHasNode(i int) bool { return g.envNodes.Test(uint(i)) }

// KernelHasNode reports whether node i must be in the graph.
func (g *UndirectedGraph) KernelHasNode(i int) bool { return g.kerNodes.Test(uint(i)) }

// EnvelopeHasEdge reports whether {i, j} may still be in the graph.
func (g *UndirectedGraph) EnvelopeHasEdge(i, j int) bool { return g.envAdj[i].Test(uint(j)) }

// KernelHasEdge reports whether {i, j} must be in the graph.
func (g *UndirectedGraph) KernelHasEdge(i, j int) bool { return g.kerAdj[i].Test(uint(j)) }

// EnvelopeDegree is the number of envelope neighbors of i.
func (g *UndirectedGraph) EnvelopeDegree(i int) int { return int(g.envAdj[i].Count()) }

// KernelDegree is the number of kernel neighbors of i.
func (g *UndirectedGraph) KernelDegree(i int) int { return int(g.kerAdj[i].Count()) }

// EnvelopeNeighbors returns the envelope neighbors of i in increasing order.
func (g *UndirectedGraph) EnvelopeNeighbors(i int) []int { return members(g.envAdj[i]) }

// KernelNeighbors returns the kernel neighbors of i in increasing order.
func (g *UndirectedGraph) KernelNeighbors(i int) []int { return members(g.kerAdj[i]) }

// EnvelopeNodes returns the envelope nodes in increasing order.
func (g *UndirectedGraph) EnvelopeNodes() []int { return members(g.envNodes) }

// KernelNodes returns the kernel nodes in increasing order.
func (g *UndirectedGraph) KernelNodes() []int { return members(g.kerNodes) }

// EnvelopeEdges lists envelope edges as sorted pairs i < j.
func (g *UndirectedGraph) EnvelopeEdges() [][2]int { return edges(g.envAdj) }

// KernelEdges lists kernel edges as sorted pairs i < j.
func (g *UndirectedGraph) KernelEdges() [][2]int { return edges(g.kerAdj) }

func members(b *bitset.BitSet) []int {
	var out []int
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

func edges(adj []*bitset.BitSet) [][2]int {
	var out [][2]int
	for i, row := range adj {
		for j, ok := row.NextSet(uint(i + 1)); ok; j, ok = row.NextSet(j + 1) {
			out = append(out, [2]int{i, int(j)})
		}
	}
	return out
}

// ShrinkEnvelope removes a node or an edge.
func (g *UndirectedGraph) ShrinkEnvelope(e Element, cause cp.Propagator) (bool, error) {
	if e.IsEdge() {
		return g.RemoveEdge(e.I, e.J, cause)
	}
	return g.RemoveNode(e.I, cause)
}

// GrowKernel enforces a node or an edge.
func (g *UndirectedGraph) GrowKernel(e Element, cause cp.Propagator) (bool, error) {
	if e.IsEdge() {
		return g.EnforceEdge(e.I, e.J, cause)
	}
	return g.EnforceNode(e.I, cause)
}

// RemoveNode removes node i and its envelope edges. Removing a kernel node
// is a contradiction.
func (g *UndirectedGraph) RemoveNode(i int, cause cp.Propagator) (bool, error) {
	if err := g.check(i); err != nil {
		return false, err
	}
	if g.kerNodes.Test(uint(i)) {
		return false, cp.Contradiction(g, cause, "remove kernel node %d", i)
	}
	if !g.envNodes.Test(uint(i)) {
		return false, nil
	}
	mask := cp.RemoveNode
	for _, j := range g.EnvelopeNeighbors(i) {
		g.envAdj[i].Clear(uint(j))
		g.envAdj[j].Clear(uint(i))
		g.envEdges--
		g.record(cp.RemoveArc, i, j, cause)
		mask |= cp.RemoveArc
	}
	g.envNodes.Clear(uint(i))
	g.record(cp.RemoveNode, i, -1, cause)
	g.notify(mask, cause)
	return true, nil
}

// EnforceNode adds node i to the kernel. Enforcing a node outside the
// envelope is a contradiction.
func (g *UndirectedGraph) EnforceNode(i int, cause cp.Propagator) (bool, error) {
	if err := g.check(i); err != nil {
		return false, err
	}
	changed, err := g.enforceNode(i, cause)
	if changed {
		g.notify(cp.EnforceNode, cause)
	}
	return changed, err
}

func (g *UndirectedGraph) enforceNode(i int, cause cp.Propagator) (bool, error) {
	if !g.envNodes.Test(uint(i)) {
		return false, cp.Contradiction(g, cause, "enforce node %d outside the envelope", i)
	}
	if g.kerNodes.Test(uint(i)) {
		return false, nil
	}
	g.kerNodes.Set(uint(i))
	g.record(cp.EnforceNode, i, -1, cause)
	return true, nil
}

// RemoveEdge removes {i, j} from the envelope. Removing a kernel edge is a
// contradiction.
func (g *UndirectedGraph) RemoveEdge(i, j int, cause cp.Propagator) (bool, error) {
	if err := g.checkPair(i, j); err != nil {
		return false, err
	}
	if g.kerAdj[i].Test(uint(j)) {
		return false, cp.Contradiction(g, cause, "remove kernel edge (%d,%d)", i, j)
	}
	if !g.envAdj[i].Test(uint(j)) {
		return false, nil
	}
	g.envAdj[i].Clear(uint(j))
	g.envAdj[j].Clear(uint(i))
	g.envEdges--
	g.record(cp.RemoveArc, i, j, cause)
	g.notify(cp.RemoveArc, cause)
	return true, nil
}

// EnforceEdge adds {i, j} and both endpoints to the kernel. Enforcing an
// edge outside the envelope is a contradiction.
func (g *UndirectedGraph) EnforceEdge(i, j int, cause cp.Propagator) (bool, error) {
	if err := g.checkPair(i, j); err != nil {
		return false, err
	}
	if !g.envAdj[i].Test(uint(j)) {
		return false, cp.Contradiction(g, cause, "enforce edge (%d,%d) outside the envelope", i, j)
	}
	if g.kerAdj[i].Test(uint(j)) {
		return false, nil
	}
	var mask cp.EventMask
	for _, k := range [2]int{i, j} {
		changed, err := g.enforceNode(k, cause)
		if err != nil {
			return false, err
		}
		if changed {
			mask |= cp.EnforceNode
		}
	}
	g.kerAdj[i].Set(uint(j))
	g.kerAdj[j].Set(uint(i))
	g.kerEdges++
	g.record(cp.EnforceArc, i, j, cause)
	g.notify(mask|cp.EnforceArc, cause)
	return true, nil
}

func (g *UndirectedGraph) checkPair(i, j int) error {
	if err := g.check(i); err != nil {
		return err
	}
	return g.check(j)
}

func (g *UndirectedGraph) notify(mask cp.EventMask, cause cp.Propagator) {
	if g.notifier != nil {
		g.notifier.Notify(g, mask, cause)
	}
}

func (g *UndirectedGraph) String() string {
	return fmt.Sprintf("%s{env=%v ker=%v}", g.name, g.EnvelopeEdges(), g.KernelEdges())
}
