package predicate

import (
	"fmt"

	"github.com/roach88/arcflow/internal/attr"
)

// Validate lists the structural problems of p. An empty result means p can
// be evaluated. Validate is a pure function.
func Validate(p Predicate) []string {
	v := &validator{}
	v.walk(p, "where")
	return v.problems
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) walk(p Predicate, path string) {
	switch p := p.(type) {
	case nil:
		v.add("%s: missing predicate", path)
	case True:
	case Compare:
		if p.Attr == attr.None {
			v.add("%s: comparison without attribute", path)
		}
		if _, err := ParseOp(string(p.Op)); err != nil {
			v.add("%s: %v", path, err)
		}
	case MemberOf:
		if len(p.Groups) == 0 {
			v.add("%s: empty group list", path)
		}
	case Not:
		v.walk(p.P, path+".not")
	case And:
		v.walkAll("and", p.Predicates, path)
	case Or:
		v.walkAll("or", p.Predicates, path)
	default:
		v.add("%s: unknown predicate type %T", path, p)
	}
}

func (v *validator) walkAll(name string, ps []Predicate, path string) {
	if len(ps) == 0 {
		v.add("%s: empty %s", path, name)
	}
	for i, q := range ps {
		v.walk(q, fmt.Sprintf("%s.%s[%d]", path, name, i))
	}
}
