package degree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arcflow/internal/cp"
	"github.com/roach88/arcflow/internal/graph"
)

func build(t *testing.T, n int, edges ...[2]int) *graph.UndirectedGraph {
	t.Helper()
	g := graph.NewUndirected(0, "g", n)
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

// square is the 4-cycle 0-1-2-3-0 plus the chord 0-2.
func square(t *testing.T) *graph.UndirectedGraph {
	return build(t, 4, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 0}, [2]int{0, 2})
}

func TestAtLeast_RemovesShortNodes(t *testing.T) {
	g := build(t, 3, [2]int{0, 1}, [2]int{1, 2})
	p := NewNodeDegreeAtLeast(0, "atleast", 0, g, Uniform(2, 3))

	require.NoError(t, p.Propagate(cp.FullMask))
	assert.Empty(t, g.EnvelopeNodes())
	assert.Empty(t, g.EnvelopeEdges())
}

func TestAtLeast_KernelNodeTooShort(t *testing.T) {
	g := build(t, 3, [2]int{0, 1}, [2]int{1, 2})
	_, err := g.EnforceNode(0, nil)
	require.NoError(t, err)
	p := NewNodeDegreeAtLeast(0, "atleast", 0, g, Uniform(2, 3))

	err = p.Propagate(cp.FullMask)
	ce, ok := cp.AsContradiction(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, p, ce.Prop)
}

func TestAtLeast_EnforcesExactNeighborhood(t *testing.T) {
	g := square(t)
	_, err := g.EnforceNode(1, nil)
	require.NoError(t, err)
	p := NewNodeDegreeAtLeast(0, "atleast", 0, g, Uniform(2, 4))

	require.NoError(t, p.Propagate(cp.FullMask))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, g.KernelEdges())
	assert.Len(t, g.EnvelopeEdges(), 5)
}

func TestAtLeast_Incremental(t *testing.T) {
	g := square(t)
	p := NewNodeDegreeAtLeast(0, "atleast", 0, g, Uniform(2, 4))

	_, err := g.RemoveEdge(2, 3, nil)
	require.NoError(t, err)
	require.NoError(t, p.PropagateOn(0, cp.RemoveArc))

	assert.False(t, g.EnvelopeHasNode(3))
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {1, 2}}, g.EnvelopeEdges())

	// the window is closed again
	require.NoError(t, p.PropagateOn(0, cp.RemoveArc))
}

func TestAtLeast_IncrementalEnforceNode(t *testing.T) {
	g := build(t, 3, [2]int{0, 1}, [2]int{1, 2})
	p := NewNodeDegreeAtLeast(0, "atleast", 0, g, []int{1, 2, 1})

	_, err := g.EnforceNode(1, nil)
	require.NoError(t, err)
	require.NoError(t, p.PropagateOn(0, cp.EnforceNode))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, g.KernelEdges())
}

func TestAtLeast_IsEntailed(t *testing.T) {
	g := build(t, 3, [2]int{0, 1})
	_, err := g.EnforceNode(2, nil)
	require.NoError(t, err)
	assert.Equal(t, cp.False, NewNodeDegreeAtLeast(0, "atleast", 0, g, Uniform(1, 3)).IsEntailed())

	assert.Equal(t, cp.Undefined, NewNodeDegreeAtLeast(0, "atleast", 0, square(t), Uniform(2, 4)).IsEntailed())

	done := build(t, 2, [2]int{0, 1})
	_, err = done.EnforceEdge(0, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, cp.True, NewNodeDegreeAtLeast(0, "atleast", 0, done, Uniform(1, 2)).IsEntailed())
}

func TestAtLeast_Conditions(t *testing.T) {
	p := NewNodeDegreeAtLeast(3, "atleast", 1, square(t), Uniform(2, 4))
	assert.Equal(t, cp.RemoveArc|cp.EnforceNode, p.PropagationConditions(0))
	assert.Equal(t, cp.Binary, p.Priority())
	assert.Equal(t, 1, p.Constraint())
	require.Len(t, p.Vars(), 1)
}

func TestAtMost_PrunesSaturatedNodes(t *testing.T) {
	g := square(t)
	p := NewNodeDegreeAtMost(0, "atmost", 0, g, Uniform(1, 4))

	_, err := g.EnforceEdge(0, 1, nil)
	require.NoError(t, err)
	require.NoError(t, p.PropagateOn(0, cp.EnforceArc))

	assert.Equal(t, [][2]int{{0, 1}, {2, 3}}, g.EnvelopeEdges())
}

func TestAtMost_Exceeded(t *testing.T) {
	g := square(t)
	_, err := g.EnforceEdge(0, 1, nil)
	require.NoError(t, err)
	_, err = g.EnforceEdge(0, 2, nil)
	require.NoError(t, err)
	p := NewNodeDegreeAtMost(0, "atmost", 0, g, Uniform(1, 4))

	assert.True(t, cp.IsContradiction(p.Propagate(cp.FullMask)))
	assert.Equal(t, cp.False, p.IsEntailed())
}

func TestAtMost_IsEntailed(t *testing.T) {
	assert.Equal(t, cp.True, NewNodeDegreeAtMost(0, "atmost", 0, square(t), Uniform(3, 4)).IsEntailed())
	assert.Equal(t, cp.Undefined, NewNodeDegreeAtMost(0, "atmost", 0, square(t), Uniform(1, 4)).IsEntailed())
}
