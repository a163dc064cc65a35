package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/compiler"
	"github.com/roach88/arcflow/internal/cp"
	"github.com/roach88/arcflow/internal/degree"
	"github.com/roach88/arcflow/internal/graph"
	"github.com/roach88/arcflow/internal/predicate"
	"github.com/roach88/arcflow/internal/strategy"
	"github.com/roach88/arcflow/internal/testutil"
	"github.com/roach88/arcflow/internal/trace"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, props []cp.Propagator, opts ...EngineOption) (*Engine, *StepLog) {
	t.Helper()
	log := &StepLog{}
	opts = append([]EngineOption{
		WithLogger(quietLogger()),
		WithRunIDGenerator(NewFixedGenerator("run-1")),
		WithObserver(log),
	}, opts...)
	e, err := New(props, opts...)
	require.NoError(t, err)
	return e, log
}

func TestEngine_EmptyModel(t *testing.T) {
	e, log := newTestEngine(t, nil)
	assert.Nil(t, e.Program())
	assert.Empty(t, e.Arcs())
	require.NoError(t, e.InitialPropagation())
	require.NoError(t, e.Propagate())
	assert.Empty(t, log.Steps())
}

func TestEngine_DefaultReachesFixpoint(t *testing.T) {
	rec := &testutil.Recorder{}
	x := testutil.NewIntVar(0, "x", 4)
	a := testutil.NewScriptedProp(0, "a", cp.Unary, rec, x)
	a.OnPropagate = testutil.Narrower(1)
	b := testutil.NewScriptedProp(1, "b", cp.Unary, rec, x)

	e, log := newTestEngine(t, []cp.Propagator{a, b})
	assert.Contains(t, e.Program().Warnings, "no strategy declared, using default engine")

	require.NoError(t, e.InitialPropagation())
	assert.Equal(t, 3, x.Cardinality())

	// a never reacts to its own change, b wakes after each one.
	assert.Equal(t, []string{"a", "b", "b@x"}, rec.Calls())
	steps := log.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, int64(1), steps[0].Seq)
	assert.True(t, steps[0].Changed)
	assert.Equal(t, "", steps[0].Var)
	assert.Equal(t, "x", steps[2].Var)
	assert.False(t, steps[2].Changed)
	assert.Equal(t, int64(3), e.Clock().Current())
}

func TestEngine_CauseIsSkipped(t *testing.T) {
	rec := &testutil.Recorder{}
	x := testutil.NewIntVar(0, "x", 5)
	a := testutil.NewScriptedProp(0, "a", cp.Unary, rec, x)
	a.OnPropagate = testutil.Narrower(1)

	e, _ := newTestEngine(t, []cp.Propagator{a})
	require.NoError(t, e.PropagateEvent(x, cp.Bound))

	// one shrink per execution and no self-wakeup
	assert.Equal(t, []string{"a@x"}, rec.Calls())
	assert.Equal(t, 4, x.Cardinality())
}

func TestEngine_ConditionsFilterEvents(t *testing.T) {
	rec := &testutil.Recorder{}
	x := testutil.NewIntVar(0, "x", 3)
	a := testutil.NewScriptedProp(0, "a", cp.Unary, rec, x)
	a.Conditions = cp.Instantiate

	e, _ := newTestEngine(t, []cp.Propagator{a})
	require.NoError(t, e.PropagateEvent(x, cp.Bound))
	assert.Empty(t, rec.Calls())

	require.NoError(t, e.PropagateEvent(x, cp.Bound|cp.Instantiate))
	assert.Equal(t, []string{"a@x"}, rec.Calls())
}

func TestEngine_ContradictionFlushes(t *testing.T) {
	rec := &testutil.Recorder{}
	x := testutil.NewIntVar(0, "x", 3)
	fail := testutil.NewScriptedProp(0, "fail", cp.Unary, rec, x)
	fail.OnPropagate = func(p *testutil.ScriptedProp, _ int, _ cp.EventMask) error {
		return cp.Contradiction(x, p, "no support")
	}
	other := testutil.NewScriptedProp(1, "other", cp.Unary, rec, x)

	e, log := newTestEngine(t, []cp.Propagator{fail, other})
	err := e.PropagateEvent(x, cp.Bound)
	require.Error(t, err)

	ce, ok := cp.AsContradiction(err)
	require.True(t, ok, "contradiction must not be wrapped")
	assert.Equal(t, "no support", ce.Message)

	assert.Equal(t, []string{"fail@x"}, rec.Calls())
	assert.False(t, e.Program().Root.Pending())

	steps := log.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, trace.OutcomeContradiction, steps[0].Outcome)
	assert.Equal(t, "no support", steps[0].Message)

	// the engine is usable after a contradiction
	fail.OnPropagate = nil
	rec.Reset()
	require.NoError(t, e.PropagateEvent(x, cp.Bound))
	assert.Equal(t, []string{"fail@x", "other@x"}, rec.Calls())
}

func TestEngine_PropagatorFailure(t *testing.T) {
	boom := errors.New("boom")
	x := testutil.NewIntVar(0, "x", 3)
	a := testutil.NewScriptedProp(0, "a", cp.Unary, nil, x)
	a.OnPropagate = func(*testutil.ScriptedProp, int, cp.EventMask) error { return boom }

	e, _ := newTestEngine(t, []cp.Propagator{a})
	err := e.PropagateEvent(x, cp.Bound)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodePropagatorFailed, re.Code)
	assert.Equal(t, "a", re.Prop)
	assert.ErrorIs(t, err, boom)
	assert.False(t, cp.IsContradiction(err))
}

func TestEngine_QuotaExceeded(t *testing.T) {
	x := testutil.NewIntVar(0, "x", 3)
	// each propagator reports a change that wakes the other
	pingPong := func(p *testutil.ScriptedProp, _ int, _ cp.EventMask) error {
		x.Notifier().Notify(x, cp.Bound, p)
		return nil
	}
	a := testutil.NewScriptedProp(0, "a", cp.Unary, nil, x)
	a.OnPropagate = pingPong
	b := testutil.NewScriptedProp(1, "b", cp.Unary, nil, x)
	b.OnPropagate = pingPong

	e, log := newTestEngine(t, []cp.Propagator{a, b}, WithMaxSteps(10))
	err := e.PropagateEvent(x, cp.Bound)
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Len(t, log.Steps(), 10)
	assert.False(t, e.Program().Root.Pending())
}

func TestEngine_StrategyOrder(t *testing.T) {
	rec := &testutil.Recorder{}
	x := testutil.NewIntVar(0, "x", 5)
	lo := testutil.NewScriptedProp(0, "lo", cp.Unary, rec, x)
	hi := testutil.NewScriptedProp(1, "hi", cp.Ternary, rec, x)

	// the costly propagator is declared first but scheduled last
	d := &strategy.Description{
		Groups: []strategy.GroupDecl{{Name: "all", Where: predicate.True{}}},
		Structure: &strategy.Reg{
			Group:     "all",
			Partition: &strategy.Many{
				By:   attr.PropPriority,
				Key:  attr.Of(attr.PropPriority),
				Coll: strategy.Coll{Type: strategy.Queue, Iter: strategy.IterWhileOne},
			},
			Coll: strategy.Coll{Type: strategy.List, Iter: strategy.IterWhileFor},
		},
	}
	e, _ := newTestEngine(t, []cp.Propagator{hi, lo}, WithDescription(d))
	require.NoError(t, e.PropagateEvent(x, cp.Bound))
	assert.Equal(t, []string{"lo@x", "hi@x"}, rec.Calls())
}

// Three propagators over x and y give six arcs with pprio 1,1,2,2,3,3. The
// low group runs in its own queue ahead of a priority-sorted list over the
// rest; only c narrows, so the second outer cycle revisits a and b once.
func TestEngine_LowGroupThenSortedRest(t *testing.T) {
	rec := &testutil.Recorder{}
	x := testutil.NewIntVar(0, "x", 3)
	y := testutil.NewIntVar(1, "y", 2)
	a := testutil.NewScriptedProp(0, "a", cp.Unary, rec, x, y)
	b := testutil.NewScriptedProp(1, "b", cp.Binary, rec, x, y)
	c := testutil.NewScriptedProp(2, "c", cp.Ternary, rec, x, y)
	c.OnPropagate = testutil.Narrower(1)

	d := &strategy.Description{
		Groups: []strategy.GroupDecl{
			{Name: "low", Where: predicate.Compare{Attr: attr.PropPriority, Op: predicate.Le, Value: 1}},
			{Name: "rest", Where: predicate.True{}},
		},
		Structure: &strategy.Struct{
			Elements: []strategy.Element{
				&strategy.Struct{
					Elements: []strategy.Element{strategy.GroupRef{Name: "low"}},
					Coll:     strategy.Coll{Type: strategy.Queue, Iter: strategy.IterWhileOne},
				},
				&strategy.Struct{
					Elements: []strategy.Element{strategy.GroupRef{Name: "rest", Key: attr.PropPriority}},
					Coll:     strategy.Coll{Type: strategy.List, Iter: strategy.IterFor},
				},
			},
			Coll: strategy.Coll{Type: strategy.Queue, Iter: strategy.IterWhileOne},
		},
	}
	e, log := newTestEngine(t, []cp.Propagator{a, b, c}, WithDescription(d))
	require.Len(t, e.Arcs(), 6)

	e.Notify(x, cp.Bound, nil)
	e.Notify(y, cp.Bound, nil)
	require.NoError(t, e.Propagate())

	assert.Equal(t, []string{
		"a@x", "a@y", "b@x", "b@y", "c@x", "c@y",
		"a@x", "a@y", "b@x", "b@y",
	}, rec.Calls())
	assert.Len(t, log.Steps(), 10)
	assert.Equal(t, 2, x.Cardinality())
	assert.Equal(t, 1, y.Cardinality())
	assert.False(t, e.Program().Root.Pending())
}

func TestEngine_PartitionWithoutAttribute(t *testing.T) {
	x := testutil.NewIntVar(0, "x", 3)
	p := testutil.NewScriptedProp(0, "p", cp.Unary, nil, x)
	queue := strategy.Coll{Type: strategy.Queue, Iter: strategy.IterWhileOne}

	for _, part := range []strategy.Partition{
		&strategy.Many{Coll: queue},
		&strategy.Each{Inner: &strategy.Many{By: attr.VarName, Coll: queue}, Coll: queue},
	} {
		d := &strategy.Description{
			Groups:    []strategy.GroupDecl{{Name: "all", Where: predicate.True{}}},
			Structure: &strategy.Reg{Group: "all", Partition: part, Coll: queue},
		}
		_, err := New([]cp.Propagator{p}, WithLogger(quietLogger()), WithDescription(d))
		require.Error(t, err)
		assert.True(t, compiler.IsConfigError(err, compiler.ErrCodeInvalidDescription), "got %v", err)
	}
}

func TestEngine_SwitcherFollowsCardinality(t *testing.T) {
	rec := &testutil.Recorder{}
	x := testutil.NewIntVar(0, "x", 3)
	y := testutil.NewIntVar(1, "y", 2)
	z := testutil.NewIntVar(2, "z", 4)
	r := testutil.NewScriptedProp(0, "r", cp.Unary, rec, x)
	q := testutil.NewScriptedProp(1, "q", cp.Unary, rec, y)
	q.OnPropagate = func(p *testutil.ScriptedProp, _ int, _ cp.EventMask) error {
		_, err := z.Shrink(3, p)
		return err
	}
	s := testutil.NewScriptedProp(2, "s", cp.Unary, rec, z)

	d := &strategy.Description{
		Groups: []strategy.GroupDecl{{Name: "all", Where: predicate.True{}}},
		Structure: &strategy.Reg{
			Group:     "all",
			Partition: &strategy.Many{By: attr.VarCard, Coll: strategy.Coll{Type: strategy.Queue, Iter: strategy.IterWhileOne}},
			Coll:      strategy.Coll{Type: strategy.Heap, Iter: strategy.IterWhileOne, Order: strategy.OrderMin},
		},
	}
	e, _ := newTestEngine(t, []cp.Propagator{r, q, s}, WithDescription(d))
	require.Len(t, e.Program().Switchers(), 1)

	e.Notify(x, cp.Bound, nil)
	e.Notify(y, cp.Bound, nil)
	e.Notify(z, cp.Bound, nil)
	require.NoError(t, e.Propagate())

	// z drops to a single value while q runs, so s overtakes r
	assert.Equal(t, []string{"q@y", "s@z", "r@x"}, rec.Calls())
}

func TestEngine_Deterministic(t *testing.T) {
	run := func() string {
		x := testutil.NewIntVar(0, "x", 6)
		y := testutil.NewIntVar(1, "y", 6)
		a := testutil.NewScriptedProp(0, "a", cp.Unary, nil, x, y)
		a.OnPropagate = testutil.Narrower(2)
		b := testutil.NewScriptedProp(1, "b", cp.Binary, nil, y)
		b.OnPropagate = testutil.Narrower(1)

		e, log := newTestEngine(t, []cp.Propagator{a, b})
		require.NoError(t, e.InitialPropagation())
		digest, err := trace.Digest(log.Steps())
		require.NoError(t, err)
		return digest
	}
	assert.Equal(t, run(), run())
}

func TestEngine_DegreeModel(t *testing.T) {
	g := graph.NewUndirected(0, "g", 4)
	for _, e := range [][2]int{{0, 1}, {0, 2}, {1, 2}, {2, 3}} {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	atLeast := degree.NewNodeDegreeAtLeast(0, "deg>=2", 0, g, degree.Uniform(2, 4))

	e, log := newTestEngine(t, []cp.Propagator{atLeast})
	require.NoError(t, e.InitialPropagation())
	assert.False(t, g.EnvelopeHasNode(3), "node with a single neighbor is removed")
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {1, 2}}, g.EnvelopeEdges())

	// node 0 has exactly two candidate edges left, both become mandatory
	_, err := g.EnforceNode(0, nil)
	require.NoError(t, err)
	require.NoError(t, e.Propagate())
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}}, g.KernelEdges())

	_, err = g.RemoveEdge(1, 2, nil)
	require.NoError(t, err)
	err = e.Propagate()
	require.True(t, cp.IsContradiction(err))

	last := log.Steps()[len(log.Steps())-1]
	assert.Equal(t, trace.OutcomeContradiction, last.Outcome)
	assert.Equal(t, "g", last.Var)
}

func TestEngine_ObserverFunc(t *testing.T) {
	x := testutil.NewIntVar(0, "x", 3)
	a := testutil.NewScriptedProp(0, "a", cp.Unary, nil, x)

	var names []string
	e, _ := newTestEngine(t, []cp.Propagator{a}, WithObserver(ObserverFunc(func(s trace.Step) {
		names = append(names, s.Prop)
	})))
	require.NoError(t, e.PropagateEvent(x, cp.Bound))
	assert.Equal(t, []string{"a"}, names)
}
