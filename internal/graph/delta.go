package graph

import (
	"errors"

	"github.com/roach88/arcflow/internal/cp"
)

var (
	// ErrFrozen is returned when freezing a monitor that is already frozen.
	ErrFrozen = errors.New("delta monitor already frozen")

	// ErrNotFrozen is returned when iterating a monitor outside a window.
	ErrNotFrozen = errors.New("delta monitor not frozen")
)

type delta struct {
	kind  cp.EventMask
	i, j  int
	cause cp.Propagator
}

// MonitorDelta returns a monitor over the changes of g on behalf of owner.
// Changes caused by owner are not reported to it.
func (g *UndirectedGraph) MonitorDelta(owner cp.Propagator) *DeltaMonitor {
	return &DeltaMonitor{g: g, owner: owner, from: len(g.log)}
}

// TODO: compact the log once every monitor has read past a prefix.
func (g *UndirectedGraph) record(kind cp.EventMask, i, j int, cause cp.Propagator) {
	g.log = append(g.log, delta{kind: kind, i: i, j: j, cause: cause})
}

// DeltaMonitor reads the changes of one graph incrementally.
//
// Freeze fixes a window over the changes recorded since the last window.
// Changes recorded while frozen are left for the next window.
type DeltaMonitor struct {
	g      *UndirectedGraph
	owner  cp.Propagator
	from   int
	to     int
	frozen bool
}

// Freeze opens a window.
func (m *DeltaMonitor) Freeze() error {
	if m.frozen {
		return ErrFrozen
	}
	m.to = len(m.g.log)
	m.frozen = true
	return nil
}

// Unfreeze closes the window. Outside a window it discards every pending
// change, which is what a coarse propagation wants.
func (m *DeltaMonitor) Unfreeze() {
	if m.frozen {
		m.from = m.to
		m.frozen = false
		return
	}
	m.from = len(m.g.log)
}

// Frozen reports whether a window is open.
func (m *DeltaMonitor) Frozen() bool { return m.frozen }

// ForEachNode calls fn for every node change of the given kind in the
// window.
func (m *DeltaMonitor) ForEachNode(kind cp.EventMask, fn func(i int) error) error {
	return m.each(kind, false, func(d delta) error { return fn(d.i) })
}

// ForEachArc calls fn for every edge change of the given kind in the
// window.
func (m *DeltaMonitor) ForEachArc(kind cp.EventMask, fn func(i, j int) error) error {
	return m.each(kind, true, func(d delta) error { return fn(d.i, d.j) })
}

func (m *DeltaMonitor) each(kind cp.EventMask, edge bool, fn func(delta) error) error {
	if !m.frozen {
		return ErrNotFrozen
	}
	for _, d := range m.g.log[m.from:m.to] {
		if d.kind&kind == 0 || (d.j >= 0) != edge {
			continue
		}
		if d.cause != nil && d.cause == m.owner {
			continue
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}
