package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arcflow/internal/attr"
)

func sample() Element {
	return &Struct{
		Elements: []Element{
			GroupRef{Name: "low"},
			&Reg{
				Group: "rest",
				Partition: &Each{
					By:    attr.VarCard,
					Inner: &Many{By: attr.PropDynPriority, Coll: Coll{Type: Queue, Iter: IterOne}},
					Coll:  Coll{Type: List, Iter: IterFor},
				},
				Key:  attr.Of(attr.PropPriority),
				Coll: Coll{Type: Heap, Order: OrderMin, Iter: IterWhileOne},
			},
		},
		Coll: Coll{Type: Queue, Iter: IterWhileOne},
	}
}

func kinds(t *Tree) []Kind {
	out := make([]Kind, t.Len())
	for i := range out {
		out[i] = t.At(i).Kind
	}
	return out
}

func TestFlatten_Layout(t *testing.T) {
	tree, err := Flatten(sample())
	require.NoError(t, err)

	assert.Equal(t, []Kind{
		StructNode, Down,
		GroupNode,
		RegNode, Down,
		EachNode, Down,
		ManyNode, Down, CollNode, Up,
		CollNode, Up,
		KeyNode, CollNode, Up,
		CollNode, Up,
	}, kinds(tree))
	assert.Equal(t, "rest", tree.At(3).Name)
	assert.Equal(t, attr.VarCard, tree.At(5).Attr)
}

func TestFlatten_String(t *testing.T) {
	tree, err := Flatten(sample())
	require.NoError(t, err)
	assert.Equal(t,
		"(STRUCT GROUP low (REG rest (EACH vcard (MANY pprio-dyn COLL[queue one]) COLL[list for]) KEY[pprio] COLL[heap min while-one]) COLL[queue while-one])",
		tree.String())
}

func TestFlatten_Errors(t *testing.T) {
	_, err := Flatten(&Struct{})
	assert.ErrorContains(t, err, "without elements")

	_, err = Flatten(&Reg{Group: "g"})
	assert.ErrorContains(t, err, `group "g": missing partition`)

	_, err = Flatten(nil)
	assert.Error(t, err)
}

func TestCursor_MatchAndSkip(t *testing.T) {
	tree, _ := Flatten(sample())
	c := tree.Cursor()

	_, err := c.Match(StructNode)
	require.NoError(t, err)
	_, err = c.Match(Down)
	require.NoError(t, err)
	assert.Equal(t, GroupNode, c.LA(1))
	assert.Equal(t, RegNode, c.LA(2))

	require.NoError(t, c.Skip()) // GROUP
	require.NoError(t, c.Skip()) // REG with its sub-tree
	assert.Equal(t, CollNode, c.LA(1))

	_, err = c.Match(KeyNode)
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, KeyNode, mm.Expected)
	assert.Equal(t, CollNode, mm.Got)
}

// Reading a sub-tree again from a mark yields the same tokens.
func TestCursor_RewindReplay(t *testing.T) {
	tree, _ := Flatten(sample())
	c := tree.Cursor()
	for c.LA(1) != EachNode {
		c.pos++
	}

	m := c.Mark()
	var first []Token
	for i := 0; i < 6; i++ {
		first = append(first, c.Peek())
		c.pos++
	}
	require.NoError(t, c.Seek(m))
	var second []Token
	for i := 0; i < 6; i++ {
		second = append(second, c.Peek())
		c.pos++
	}
	assert.Equal(t, first, second)

	c.Release(m)
	assert.ErrorIs(t, c.Seek(m), ErrReleasedMark)
	assert.Error(t, c.Seek(99))
}

func TestCursor_EOF(t *testing.T) {
	tree, _ := Flatten(GroupRef{Name: "g"})
	c := tree.Cursor()
	require.NoError(t, c.Skip())
	assert.Equal(t, EOF, c.LA(1))
	assert.Equal(t, EOF, c.Peek().Kind)
	assert.Error(t, c.Skip())
}
