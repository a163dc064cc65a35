package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/predicate"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	d := &Description{
		Groups: []GroupDecl{
			{Name: "low", Where: predicate.Compare{Attr: attr.PropPriority, Op: predicate.Le, Value: 1}},
			{Name: "rest", Where: predicate.True{}},
		},
		Structure: sample(),
	}
	assert.Empty(t, Validate(d))
}

func TestValidate_Groups(t *testing.T) {
	d := &Description{Groups: []GroupDecl{
		{Name: "", Where: predicate.True{}},
		{Name: "a", Where: predicate.And{}},
		{Name: "a", Where: predicate.True{}},
	}}
	assert.Equal(t, []string{ErrGroupNameEmpty, ErrInvalidPredicate, ErrDuplicateGroup}, codes(Validate(d)))
}

func TestValidate_Structure(t *testing.T) {
	groups := []GroupDecl{{Name: "g", Where: predicate.True{}}}

	tests := []struct {
		name string
		s    Element
		want []string
	}{
		{
			name: "unknown group",
			s:    &Struct{Elements: []Element{GroupRef{Name: "nope"}}, Coll: Coll{Type: Queue, Iter: IterOne}},
			want: []string{ErrUnknownGroupRef},
		},
		{
			name: "twice",
			s:    &Struct{Elements: []Element{GroupRef{Name: "g"}, GroupRef{Name: "g"}}, Coll: Coll{Type: Queue, Iter: IterOne}},
			want: []string{ErrDuplicateGroupRef},
		},
		{
			name: "empty",
			s:    &Struct{Coll: Coll{Type: Queue, Iter: IterOne}},
			want: []string{ErrEmptyStructure},
		},
		{
			name: "bad coll",
			s:    &Struct{Elements: []Element{GroupRef{Name: "g"}}, Coll: Coll{Type: "stack"}},
			want: []string{ErrInvalidCollType},
		},
		{
			name: "queue for",
			s:    &Struct{Elements: []Element{GroupRef{Name: "g"}}, Coll: Coll{Type: Queue, Iter: IterFor, Reverse: true}},
			want: []string{ErrInvalidIteration, ErrReverseNotAllowed},
		},
		{
			name: "heap order",
			s:    &Struct{Elements: []Element{GroupRef{Name: "g"}}, Coll: Coll{Type: Heap, Iter: IterOne}},
			want: []string{ErrInvalidHeapOrder},
		},
		{
			name: "static each",
			s: &Reg{Group: "g", Coll: Coll{Type: Queue, Iter: IterOne}, Partition: &Each{
				By:    attr.PropPriority,
				Inner: &Many{By: attr.VarCard, Coll: Coll{Type: List, Iter: IterWhileFor}},
				Coll:  Coll{Type: Queue, Iter: IterOne},
			}},
			want: []string{ErrStaticEach},
		},
		{
			name: "missing partition",
			s:    &Reg{Group: "g", Coll: Coll{Type: Queue, Iter: IterOne}},
			want: []string{ErrMissingPartition},
		},
		{
			name: "nil element",
			s:    &Struct{Elements: []Element{nil}, Coll: Coll{Type: Queue, Iter: IterOne}},
			want: []string{ErrMissingElement},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&Description{Groups: groups, Structure: tt.s})
			assert.Equal(t, tt.want, codes(errs))
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "structure.coll.type", Code: ErrInvalidCollType, Message: "bad"}
	assert.Equal(t, "[E211] structure.coll.type: bad", e.Error())
}
