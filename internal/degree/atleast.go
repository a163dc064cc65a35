package degree

import (
	"github.com/roach88/arcflow/internal/cp"
	"github.com/roach88/arcflow/internal/graph"
)

// Uniform returns a degree bound of d for each of n nodes.
func Uniform(d, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = d
	}
	return out
}

// NodeDegreeAtLeast ensures every node in the graph has at least
// degrees[i] neighbors.
//
// A node whose envelope degree falls below its bound is removed, or fails
// when it is in the kernel. A kernel node whose envelope degree equals its
// bound gets all its envelope edges enforced.
type NodeDegreeAtLeast struct {
	cp.BasePropagator
	g       *graph.UndirectedGraph
	dm      *graph.DeltaMonitor
	degrees []int
}

// NewNodeDegreeAtLeast creates the propagator for constraint on g.
func NewNodeDegreeAtLeast(id int, name string, constraint int, g *graph.UndirectedGraph, degrees []int) *NodeDegreeAtLeast {
	p := &NodeDegreeAtLeast{g: g, degrees: degrees}
	p.BasePropagator = cp.NewBasePropagator(id, name, constraint, cp.Binary, g)
	p.dm = g.MonitorDelta(p)
	return p
}

func (p *NodeDegreeAtLeast) PropagationConditions(int) cp.EventMask {
	return cp.RemoveArc | cp.EnforceNode
}

func (p *NodeDegreeAtLeast) Propagate(cp.EventMask) error {
	defer p.dm.Unfreeze()
	for _, i := range p.g.EnvelopeNodes() {
		if err := p.check(i); err != nil {
			return err
		}
		if p.g.KernelHasNode(i) {
			if err := p.enforced(i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *NodeDegreeAtLeast) PropagateOn(_ int, mask cp.EventMask) error {
	if err := p.dm.Freeze(); err != nil {
		return err
	}
	defer p.dm.Unfreeze()
	if mask.Has(cp.RemoveArc) {
		err := p.dm.ForEachArc(cp.RemoveArc, func(i, j int) error {
			if err := p.check(i); err != nil {
				return err
			}
			return p.check(j)
		})
		if err != nil {
			return err
		}
	}
	if mask.Has(cp.EnforceNode) {
		return p.dm.ForEachNode(cp.EnforceNode, p.enforced)
	}
	return nil
}

func (p *NodeDegreeAtLeast) IsEntailed() cp.ESat {
	for _, i := range p.g.KernelNodes() {
		if p.g.EnvelopeDegree(i) < p.degrees[i] {
			return cp.False
		}
	}
	if !p.g.Instantiated() {
		return cp.Undefined
	}
	return cp.True
}

// check reacts to a lower envelope degree of i.
func (p *NodeDegreeAtLeast) check(i int) error {
	if !p.g.EnvelopeHasNode(i) {
		return nil
	}
	size := p.g.EnvelopeDegree(i)
	switch {
	case size < p.degrees[i]:
		_, err := p.g.RemoveNode(i, p)
		return err
	case size == p.degrees[i] && p.g.KernelHasNode(i) && p.g.KernelDegree(i) < size:
		return p.enforceAll(i)
	}
	return nil
}

// enforced reacts to node i entering the kernel.
func (p *NodeDegreeAtLeast) enforced(i int) error {
	size := p.g.EnvelopeDegree(i)
	switch {
	case size < p.degrees[i]:
		return cp.Contradiction(p.g, p, "node %d has %d neighbors, needs %d", i, size, p.degrees[i])
	case size == p.degrees[i] && p.g.KernelDegree(i) < size:
		return p.enforceAll(i)
	}
	return nil
}

func (p *NodeDegreeAtLeast) enforceAll(i int) error {
	for _, j := range p.g.EnvelopeNeighbors(i) {
		if _, err := p.g.EnforceEdge(i, j, p); err != nil {
			return err
		}
	}
	return nil
}
