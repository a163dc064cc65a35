package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/generator"
	"github.com/roach88/arcflow/internal/predicate"
	"github.com/roach88/arcflow/internal/strategy"
)

func leafNames(units []generator.Unit) []string {
	var out []string
	for _, u := range units {
		out = append(out, u.(*generator.Leaf).String())
	}
	return out
}

func TestDeclareGroups_ShrinkingPool(t *testing.T) {
	gs, pool, err := DeclareGroups(lowAndRest(), sixArcs())
	require.NoError(t, err)
	assert.Zero(t, pool.Len())

	low, ok := gs.Lookup("low")
	require.True(t, ok)
	rest, _ := gs.Lookup("rest")

	var lowArcs, restArcs []string
	for _, a := range gs.Get(low).Arcs {
		lowArcs = append(lowArcs, a.String())
	}
	for _, a := range gs.Get(rest).Arcs {
		restArcs = append(restArcs, a.String())
	}
	assert.Equal(t, []string{"a/x", "a/y"}, lowArcs)
	assert.Equal(t, []string{"b/x", "b/y", "c/x", "c/y"}, restArcs)
}

func TestDeclareGroups_Errors(t *testing.T) {
	tests := []struct {
		name  string
		decls []strategy.GroupDecl
		code  ConfigErrorCode
	}{
		{
			name:  "no arc above priority 10",
			decls: []strategy.GroupDecl{{Name: "slow", Where: predicate.Compare{Attr: attr.PropPriority, Op: predicate.Gt, Value: 10}}},
			code:  ErrCodeEmptyGroup,
		},
		{
			name: "second group finds the pool drained",
			decls: []strategy.GroupDecl{
				{Name: "all", Where: predicate.True{}},
				{Name: "more", Where: predicate.True{}},
			},
			code: ErrCodeEmptyGroup,
		},
		{
			name: "duplicate name",
			decls: []strategy.GroupDecl{
				{Name: "g", Where: predicate.Compare{Attr: attr.PropPriority, Op: predicate.Eq, Value: 1}},
				{Name: "g", Where: predicate.True{}},
			},
			code: ErrCodeDuplicateGroup,
		},
		{
			name:  "malformed predicate",
			decls: []strategy.GroupDecl{{Name: "g", Where: predicate.And{}}},
			code:  ErrCodeInvalidDescription,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DeclareGroups(tt.decls, sixArcs())
			require.Error(t, err)
			assert.True(t, IsConfigError(err, tt.code), "got %v", err)
		})
	}
}

func TestCompile_TwoGroups(t *testing.T) {
	d := &strategy.Description{
		Groups: lowAndRest(),
		Structure: &strategy.Struct{
			Elements: []strategy.Element{
				strategy.GroupRef{Name: "low"},
				&strategy.Reg{
					Group:     "rest",
					Partition: &strategy.Many{By: attr.PropPriority, Coll: queue(strategy.IterWhileOne)},
					Coll:      strategy.Coll{Type: strategy.List, Iter: strategy.IterFor},
				},
			},
			Coll: queue(strategy.IterWhileOne),
		},
	}
	prog, err := Compile(d, sixArcs())
	require.NoError(t, err)
	assert.Empty(t, prog.Warnings)

	root := prog.Root
	assert.Equal(t, generator.KindQueue, root.Kind())
	assert.Equal(t, generator.WhileOne, root.Policy())
	units := root.Units()
	require.Len(t, units, 3)
	assert.Equal(t, []string{"a/x", "a/y"}, leafNames(units[:2]))

	sorted, ok := units[2].(*generator.Sort)
	require.True(t, ok)
	require.Len(t, sorted.Order(), 2)
	for i, want := range [][]string{{"b/x", "b/y"}, {"c/x", "c/y"}} {
		q := sorted.Order()[i].(generator.Generator)
		assert.Equal(t, generator.KindQueue, q.Kind())
		assert.Equal(t, want, leafNames(q.Units()))
	}

	require.Len(t, prog.Leaves, 6)
	for _, l := range prog.Leaves {
		assert.NotNil(t, l)
	}
}

func TestCompile_Errors(t *testing.T) {
	rest := func(p strategy.Partition) *strategy.Reg {
		return &strategy.Reg{Group: "rest", Partition: p, Coll: queue(strategy.IterWhileOne)}
	}
	tests := []struct {
		name      string
		structure strategy.Element
		code      ConfigErrorCode
	}{
		{
			name:      "unknown group",
			structure: strategy.GroupRef{Name: "nope"},
			code:      ErrCodeUnknownGroup,
		},
		{
			name: "group placed twice",
			structure: &strategy.Struct{
				Elements: []strategy.Element{strategy.GroupRef{Name: "low"}, strategy.GroupRef{Name: "low"}},
				Coll:     queue(strategy.IterWhileOne),
			},
			code: ErrCodeDuplicateReference,
		},
		{
			name: "sorted list with partial keys",
			structure: &strategy.Struct{
				Elements: []strategy.Element{
					strategy.GroupRef{Name: "low", Key: attr.VarCard},
					strategy.GroupRef{Name: "rest"},
				},
				Coll: strategy.Coll{Type: strategy.List, Iter: strategy.IterFor},
			},
			code: ErrCodeMissingKeys,
		},
		{
			name: "heap without keys",
			structure: &strategy.Struct{
				Elements: []strategy.Element{strategy.GroupRef{Name: "low"}, strategy.GroupRef{Name: "rest"}},
				Coll:     strategy.Coll{Type: strategy.Heap, Iter: strategy.IterOne, Order: strategy.OrderMin},
			},
			code: ErrCodeMissingKeys,
		},
		{
			name: "each over a static attribute",
			structure: rest(&strategy.Each{
				By:    attr.PropPriority,
				Inner: &strategy.Many{By: attr.VarName, Coll: queue(strategy.IterOne)},
				Coll:  queue(strategy.IterOne),
			}),
			code: ErrCodeInvalidSwitch,
		},
		{
			name:      "many without attribute",
			structure: rest(&strategy.Many{Coll: queue(strategy.IterOne)}),
			code:      ErrCodeInvalidDescription,
		},
		{
			name: "each without attribute",
			structure: rest(&strategy.Each{
				Inner: &strategy.Many{By: attr.VarName, Coll: queue(strategy.IterOne)},
				Coll:  queue(strategy.IterOne),
			}),
			code: ErrCodeInvalidDescription,
		},
		{
			name: "heap with a for policy",
			structure: &strategy.Struct{
				Elements: []strategy.Element{strategy.GroupRef{Name: "rest", Key: attr.VarCard}},
				Coll:     strategy.Coll{Type: strategy.Heap, Iter: strategy.IterFor},
			},
			code: ErrCodeInvalidDescription,
		},
		{
			name:      "empty structure",
			structure: &strategy.Struct{Coll: queue(strategy.IterOne)},
			code:      ErrCodeInvalidDescription,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&strategy.Description{Groups: lowAndRest(), Structure: tt.structure}, sixArcs())
			require.Error(t, err)
			assert.True(t, IsConfigError(err, tt.code), "got %v", err)
		})
	}
}

func TestCompile_DynamicManyBuildsSwitcher(t *testing.T) {
	d := &strategy.Description{
		Groups: []strategy.GroupDecl{{Name: "all", Where: predicate.True{}}},
		Structure: &strategy.Reg{
			Group:     "all",
			Partition: &strategy.Many{By: attr.VarCard, Coll: queue(strategy.IterWhileOne)},
			Coll:      strategy.Coll{Type: strategy.Heap, Iter: strategy.IterWhileOne, Order: strategy.OrderMin},
		},
	}
	prog, err := Compile(d, sixArcs())
	require.NoError(t, err)

	require.Len(t, prog.Switchers(), 1)
	sw := prog.Switchers()[0]
	assert.Equal(t, attr.VarCard, sw.By())
	assert.Equal(t, 3, sw.Max())
	assert.Len(t, sw.Inner().Units(), 6)

	heap, ok := prog.Root.(*generator.Heap)
	require.True(t, ok)
	assert.Len(t, heap.Units(), 4)
}

func TestCompile_EachThenMany(t *testing.T) {
	d := &strategy.Description{
		Groups: lowAndRest(),
		Structure: &strategy.Struct{
			Elements: []strategy.Element{
				strategy.GroupRef{Name: "low"},
				&strategy.Reg{
					Group: "rest",
					Partition: &strategy.Each{
						By:    attr.VarCard,
						Inner: &strategy.Many{By: attr.PropPriority, Coll: queue(strategy.IterWhileOne)},
						Coll:  strategy.Coll{Type: strategy.List, Iter: strategy.IterFor},
					},
					Coll: queue(strategy.IterWhileOne),
				},
			},
			Coll: queue(strategy.IterWhileOne),
		},
	}
	prog, err := Compile(d, sixArcs())
	require.NoError(t, err)
	assert.Contains(t, prog.Warnings, "collection with a single element")

	reg := prog.Root.Units()[2].(generator.Generator)
	parts := reg.Units()
	require.Len(t, parts, 2, "one list per cardinality of x and y")
	for i, want := range []string{"b/x", "b/y"} {
		list := parts[i].(*generator.Sort)
		require.Len(t, list.Order(), 2)
		first := list.Order()[0].(generator.Generator)
		assert.Equal(t, []string{want}, leafNames(first.Units()))
	}
}

func TestCompile_Orphans(t *testing.T) {
	d := &strategy.Description{
		Groups: lowAndRest(),
		Structure: &strategy.Struct{
			Elements: []strategy.Element{strategy.GroupRef{Name: "low"}},
			Coll:     queue(strategy.IterWhileOne),
		},
	}

	t.Run("fold", func(t *testing.T) {
		prog, err := Compile(d, sixArcs())
		require.NoError(t, err)
		assert.Contains(t, prog.Warnings, "arcs not scheduled by the strategy")

		units := prog.Root.Units()
		require.Len(t, units, 2)
		tail := units[1].(generator.Generator)
		assert.Equal(t, []string{"b/x", "b/y", "c/x", "c/y"}, leafNames(tail.Units()))
		for _, l := range prog.Leaves {
			assert.NotNil(t, l)
		}
	})

	t.Run("warn", func(t *testing.T) {
		prog, err := Compile(d, sixArcs(), WithOrphanPolicy(OrphanWarn))
		require.NoError(t, err)
		assert.Contains(t, prog.Warnings, "arcs not scheduled by the strategy")
		assert.Len(t, prog.Root.Units(), 2)
		assert.Nil(t, prog.Leaves[2])
	})
}

func TestCompile_RootGroupIsWrapped(t *testing.T) {
	d := &strategy.Description{
		Groups:    []strategy.GroupDecl{{Name: "all", Where: predicate.True{}}},
		Structure: strategy.GroupRef{Name: "all"},
	}
	prog, err := Compile(d, sixArcs())
	require.NoError(t, err)
	assert.Equal(t, generator.KindQueue, prog.Root.Kind())
	assert.Len(t, prog.Root.Units(), 6)
}

func TestCompile_DefaultEngine(t *testing.T) {
	prog, err := Compile(nil, sixArcs())
	require.NoError(t, err)
	assert.Equal(t, []string{"no strategy declared, using default engine"}, prog.Warnings)
	assert.Equal(t, generator.WhileOne, prog.Root.Policy())
	assert.Equal(t, []string{"a/x", "a/y", "b/x", "b/y", "c/x", "c/y"}, leafNames(prog.Root.Units()))

	_, err = Compile(nil, nil)
	assert.True(t, IsConfigError(err, ErrCodeEmptyGenerator))
}
