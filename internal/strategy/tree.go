package strategy

import (
	"fmt"
	"strings"

	"github.com/roach88/arcflow/internal/attr"
)

// Kind identifies a token of a flattened tree.
type Kind uint8

const (
	EOF Kind = iota
	Down
	Up
	StructNode
	RegNode
	GroupNode
	ManyNode
	EachNode
	KeyNode
	CollNode
)

var kindNames = [...]string{"EOF", "DOWN", "UP", "STRUCT", "REG", "GROUP", "MANY", "EACH", "KEY", "COLL"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("KIND(%d)", k)
}

// Token is one entry of the arena. Only the fields relevant to Kind are set:
// Name for REG and GROUP, Attr for REG (arc key), GROUP (key), MANY and EACH
// (partition attribute), Key for KEY and Coll for COLL.
type Token struct {
	Kind Kind
	Name string
	Attr attr.Attribute
	Key  *attr.Combined
	Coll Coll
}

// Tree is an immutable flattened structure.
type Tree struct {
	tokens []Token
}

// Flatten lays a structure out as a token stream.
//
//	Struct:   STRUCT DOWN element+ KEY? COLL UP
//	Reg:      REG DOWN partition KEY? COLL UP
//	GroupRef: GROUP
//	Many:     MANY DOWN KEY? COLL UP
//	Each:     EACH DOWN KEY? partition COLL UP
func Flatten(e Element) (*Tree, error) {
	f := &flattener{}
	if err := f.element(e); err != nil {
		return nil, err
	}
	return &Tree{tokens: f.tokens}, nil
}

type flattener struct {
	tokens []Token
}

func (f *flattener) emit(t Token) {
	f.tokens = append(f.tokens, t)
}

func (f *flattener) key(k *attr.Combined) {
	if k != nil {
		f.emit(Token{Kind: KeyNode, Key: k})
	}
}

func (f *flattener) element(e Element) error {
	switch e := e.(type) {
	case GroupRef:
		f.emit(Token{Kind: GroupNode, Name: e.Name, Attr: e.Key})
	case *GroupRef:
		f.emit(Token{Kind: GroupNode, Name: e.Name, Attr: e.Key})
	case *Struct:
		if len(e.Elements) == 0 {
			return fmt.Errorf("structure without elements")
		}
		f.emit(Token{Kind: StructNode})
		f.emit(Token{Kind: Down})
		for _, child := range e.Elements {
			if err := f.element(child); err != nil {
				return err
			}
		}
		f.key(e.Key)
		f.emit(Token{Kind: CollNode, Coll: e.Coll})
		f.emit(Token{Kind: Up})
	case *Reg:
		f.emit(Token{Kind: RegNode, Name: e.Group, Attr: e.ArcKey})
		f.emit(Token{Kind: Down})
		if err := f.partition(e.Partition); err != nil {
			return fmt.Errorf("group %q: %w", e.Group, err)
		}
		f.key(e.Key)
		f.emit(Token{Kind: CollNode, Coll: e.Coll})
		f.emit(Token{Kind: Up})
	case nil:
		return fmt.Errorf("missing element")
	default:
		return fmt.Errorf("unknown element type %T", e)
	}
	return nil
}

func (f *flattener) partition(p Partition) error {
	switch p := p.(type) {
	case *Many:
		f.emit(Token{Kind: ManyNode, Attr: p.By})
		f.emit(Token{Kind: Down})
		f.key(p.Key)
		f.emit(Token{Kind: CollNode, Coll: p.Coll})
		f.emit(Token{Kind: Up})
	case *Each:
		f.emit(Token{Kind: EachNode, Attr: p.By})
		f.emit(Token{Kind: Down})
		f.key(p.Key)
		if err := f.partition(p.Inner); err != nil {
			return err
		}
		f.emit(Token{Kind: CollNode, Coll: p.Coll})
		f.emit(Token{Kind: Up})
	case nil:
		return fmt.Errorf("missing partition")
	default:
		return fmt.Errorf("unknown partition type %T", p)
	}
	return nil
}

// Len returns the number of tokens.
func (t *Tree) Len() int { return len(t.tokens) }

// At returns token i.
func (t *Tree) At(i int) Token { return t.tokens[i] }

// Cursor returns a new cursor at the first token.
func (t *Tree) Cursor() *Cursor { return &Cursor{tree: t} }

// String renders the tree as nested s-expressions.
func (t *Tree) String() string {
	var b strings.Builder
	for i, tok := range t.tokens {
		switch tok.Kind {
		case Down:
			continue
		case Up:
			b.WriteByte(')')
			continue
		}
		if s := b.String(); s != "" && s[len(s)-1] != '(' {
			b.WriteByte(' ')
		}
		if i+1 < len(t.tokens) && t.tokens[i+1].Kind == Down {
			b.WriteByte('(')
		}
		b.WriteString(tok.label())
	}
	return b.String()
}

func (t Token) label() string {
	switch t.Kind {
	case GroupNode, RegNode:
		if t.Attr != attr.None {
			return fmt.Sprintf("%s %s key=%s", t.Kind, t.Name, t.Attr)
		}
		return fmt.Sprintf("%s %s", t.Kind, t.Name)
	case ManyNode, EachNode:
		return fmt.Sprintf("%s %s", t.Kind, t.Attr)
	case KeyNode:
		return fmt.Sprintf("KEY[%s]", t.Key)
	case CollNode:
		return "COLL[" + t.Coll.String() + "]"
	}
	return t.Kind.String()
}

func (c Coll) String() string {
	parts := []string{string(c.Type)}
	if c.Reverse {
		parts = append(parts, "reverse")
	}
	if c.Order != "" {
		parts = append(parts, c.Order)
	}
	if c.Iter != "" {
		parts = append(parts, c.Iter)
	}
	return strings.Join(parts, " ")
}
