package predicate

import (
	"fmt"
	"strings"

	"github.com/roach88/arcflow/internal/attr"
)

// Predicate is a boolean expression over one arc.
type Predicate interface {
	predicateNode() // seals the interface to this package
	fmt.Stringer
}

// CompareOp is the relation used by Compare.
type CompareOp string

const (
	Eq CompareOp = "="
	Ne CompareOp = "!="
	Lt CompareOp = "<"
	Gt CompareOp = ">"
	Le CompareOp = "<="
	Ge CompareOp = ">="
)

// ParseOp resolves a comparison operator. "==" and "<>" are accepted as
// aliases.
func ParseOp(s string) (CompareOp, error) {
	switch s {
	case "=", "==":
		return Eq, nil
	case "!=", "<>":
		return Ne, nil
	case "<", ">", "<=", ">=":
		return CompareOp(s), nil
	}
	return "", fmt.Errorf("unknown comparison operator %q", s)
}

func (op CompareOp) apply(l, r int) bool {
	switch op {
	case Eq:
		return l == r
	case Ne:
		return l != r
	case Lt:
		return l < r
	case Gt:
		return l > r
	case Le:
		return l <= r
	case Ge:
		return l >= r
	}
	return false
}

// True matches every arc.
type True struct{}

func (True) predicateNode() {}
func (True) String() string { return "true" }

// Compare matches arcs whose attribute satisfies Op against Value.
//
//	Compare{Attr: attr.PropPriority, Op: Le, Value: 1}
type Compare struct {
	Attr  attr.Attribute
	Op    CompareOp
	Value int
}

func (Compare) predicateNode() {}
func (c Compare) String() string {
	return fmt.Sprintf("%s %s %d", c.Attr, c.Op, c.Value)
}

// MemberOf matches arcs already owned by one of Groups.
type MemberOf struct {
	Groups []string
}

func (MemberOf) predicateNode() {}
func (m MemberOf) String() string {
	return "in(" + strings.Join(m.Groups, ", ") + ")"
}

// Not negates its operand.
type Not struct {
	P Predicate
}

func (Not) predicateNode() {}
func (n Not) String() string { return "not(" + n.P.String() + ")" }

// And matches when every operand matches.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
func (a And) String() string { return join("and", a.Predicates) }

// Or matches when at least one operand matches.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
func (o Or) String() string { return join("or", o.Predicates) }

func join(name string, ps []Predicate) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
