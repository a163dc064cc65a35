package degree

import (
	"github.com/roach88/arcflow/internal/cp"
	"github.com/roach88/arcflow/internal/graph"
)

// NodeDegreeAtMost ensures every node has at most degrees[i] neighbors.
// Once the kernel degree of a node reaches its bound, its remaining
// envelope edges are removed.
type NodeDegreeAtMost struct {
	cp.BasePropagator
	g       *graph.UndirectedGraph
	dm      *graph.DeltaMonitor
	degrees []int
}

// NewNodeDegreeAtMost creates the propagator for constraint on g.
func NewNodeDegreeAtMost(id int, name string, constraint int, g *graph.UndirectedGraph, degrees []int) *NodeDegreeAtMost {
	p := &NodeDegreeAtMost{g: g, degrees: degrees}
	p.BasePropagator = cp.NewBasePropagator(id, name, constraint, cp.Binary, g)
	p.dm = g.MonitorDelta(p)
	return p
}

func (p *NodeDegreeAtMost) PropagationConditions(int) cp.EventMask {
	return cp.EnforceArc
}

func (p *NodeDegreeAtMost) Propagate(cp.EventMask) error {
	defer p.dm.Unfreeze()
	for _, i := range p.g.KernelNodes() {
		if err := p.check(i); err != nil {
			return err
		}
	}
	return nil
}

func (p *NodeDegreeAtMost) PropagateOn(_ int, mask cp.EventMask) error {
	if err := p.dm.Freeze(); err != nil {
		return err
	}
	defer p.dm.Unfreeze()
	if !mask.Has(cp.EnforceArc) {
		return nil
	}
	return p.dm.ForEachArc(cp.EnforceArc, func(i, j int) error {
		if err := p.check(i); err != nil {
			return err
		}
		return p.check(j)
	})
}

func (p *NodeDegreeAtMost) IsEntailed() cp.ESat {
	bounded := true
	for i := 0; i < p.g.NumNodes(); i++ {
		if p.g.KernelDegree(i) > p.degrees[i] {
			return cp.False
		}
		if p.g.EnvelopeHasNode(i) && p.g.EnvelopeDegree(i) > p.degrees[i] {
			bounded = false
		}
	}
	if bounded {
		return cp.True
	}
	return cp.Undefined
}

func (p *NodeDegreeAtMost) check(i int) error {
	ker := p.g.KernelDegree(i)
	switch {
	case ker > p.degrees[i]:
		return cp.Contradiction(p.g, p, "node %d has %d kernel neighbors, allows %d", i, ker, p.degrees[i])
	case ker == p.degrees[i] && p.g.EnvelopeDegree(i) > ker:
		for _, j := range p.g.EnvelopeNeighbors(i) {
			if p.g.KernelHasEdge(i, j) {
				continue
			}
			if _, err := p.g.RemoveEdge(i, j, p); err != nil {
				return err
			}
		}
	}
	return nil
}
