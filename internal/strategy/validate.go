package strategy

import (
	"fmt"
	"strings"

	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/predicate"
)

// Validation error codes (E200-E299)
const (
	// Group declaration errors (E201-E209)
	ErrGroupNameEmpty    = "E201" // group name is required
	ErrDuplicateGroup    = "E202" // group declared twice
	ErrInvalidPredicate  = "E203" // predicate cannot be evaluated
	ErrUnknownGroupRef   = "E204" // structure references an undeclared group
	ErrDuplicateGroupRef = "E205" // group referenced twice

	// Structure errors (E210-E219)
	ErrEmptyStructure    = "E210" // structure without elements
	ErrInvalidCollType   = "E211" // unknown collection type
	ErrInvalidIteration  = "E212" // iteration policy not valid for the collection
	ErrInvalidHeapOrder  = "E213" // heap order must be min or max
	ErrMissingPartition  = "E214" // reg without partition or partition without attribute
	ErrStaticEach        = "E215" // each over a static attribute
	ErrMissingElement    = "E216" // nil element
	ErrReverseNotAllowed = "E217" // reverse only applies to lists
)

// ValidationError describes one problem in a description.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a description without compiling it.
// Returns all errors found (does not fail-fast).
func Validate(d *Description) []ValidationError {
	v := &validator{declared: map[string]bool{}, used: map[string]bool{}}

	for i, g := range d.Groups {
		field := fmt.Sprintf("groups[%d]", i)
		if strings.TrimSpace(g.Name) == "" {
			v.add(field+".name", ErrGroupNameEmpty, "group name is required")
		} else if v.declared[g.Name] {
			v.add(field+".name", ErrDuplicateGroup, "duplicate group name: %q", g.Name)
		}
		v.declared[g.Name] = true
		for _, p := range predicate.Validate(g.Where) {
			v.add(field, ErrInvalidPredicate, "%s", p)
		}
	}

	if d.Structure != nil {
		v.element(d.Structure, "structure")
	}
	return v.errs
}

type validator struct {
	errs     []ValidationError
	declared map[string]bool
	used     map[string]bool
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) ref(name, field string) {
	if !v.declared[name] {
		v.add(field, ErrUnknownGroupRef, "unknown group %q", name)
		return
	}
	if v.used[name] {
		v.add(field, ErrDuplicateGroupRef, "group %q referenced more than once", name)
	}
	v.used[name] = true
}

func (v *validator) element(e Element, field string) {
	switch e := e.(type) {
	case GroupRef:
		v.ref(e.Name, field)
	case *GroupRef:
		v.ref(e.Name, field)
	case *Struct:
		if len(e.Elements) == 0 {
			v.add(field+".elements", ErrEmptyStructure, "structure needs at least one element")
		}
		for i, c := range e.Elements {
			v.element(c, fmt.Sprintf("%s.elements[%d]", field, i))
		}
		v.coll(e.Coll, field+".coll")
	case *Reg:
		v.ref(e.Group, field+".group")
		v.partition(e.Partition, field+".partition")
		v.coll(e.Coll, field+".coll")
	case nil:
		v.add(field, ErrMissingElement, "missing element")
	default:
		v.add(field, ErrMissingElement, "unknown element type %T", e)
	}
}

func (v *validator) partition(p Partition, field string) {
	switch p := p.(type) {
	case *Many:
		if p.By == attr.None {
			v.add(field+".by", ErrMissingPartition, "partition attribute is required")
		}
		v.coll(p.Coll, field+".coll")
	case *Each:
		if p.By == attr.None {
			v.add(field+".by", ErrMissingPartition, "partition attribute is required")
		} else if !p.By.IsDynamic() {
			v.add(field+".by", ErrStaticEach, "each requires a dynamic attribute, %s is static", p.By)
		}
		v.partition(p.Inner, field+".inner")
		v.coll(p.Coll, field+".coll")
	case nil:
		v.add(field, ErrMissingPartition, "registered structure needs a partition")
	default:
		v.add(field, ErrMissingPartition, "unknown partition type %T", p)
	}
}

// coll accepts an empty iteration, compiled as while-one.
func (v *validator) coll(c Coll, field string) {
	switch c.Type {
	case Queue, Heap:
		if c.Iter != "" && c.Iter != IterOne && c.Iter != IterWhileOne {
			v.add(field+".iter", ErrInvalidIteration, "%s supports one or while-one, got %q", c.Type, c.Iter)
		}
	case List:
		switch c.Iter {
		case "", IterOne, IterWhileOne, IterFor, IterWhileFor:
		default:
			v.add(field+".iter", ErrInvalidIteration, "invalid list iteration %q", c.Iter)
		}
	default:
		v.add(field+".type", ErrInvalidCollType, "invalid collection type %q, must be \"queue\", \"list\", or \"heap\"", c.Type)
		return
	}
	if c.Type == Heap && c.Order != OrderMin && c.Order != OrderMax {
		v.add(field+".order", ErrInvalidHeapOrder, "heap order must be min or max, got %q", c.Order)
	}
	if c.Reverse && c.Type != List {
		v.add(field+".reverse", ErrReverseNotAllowed, "reverse only applies to lists")
	}
}
