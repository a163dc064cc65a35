package strategy

import (
	"errors"
	"fmt"
)

// ErrReleasedMark is returned when seeking to a mark that was released.
var ErrReleasedMark = errors.New("mark already released")

// MismatchError reports an unexpected token.
type MismatchError struct {
	Pos      int
	Expected Kind
	Got      Kind
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("token %d: expected %s, got %s", e.Pos, e.Expected, e.Got)
}

// Cursor reads a Tree front to back and can rewind to marked positions.
// A cursor is cheap; it never copies the tree.
type Cursor struct {
	tree  *Tree
	pos   int
	marks []mark
}

type mark struct {
	pos      int
	released bool
}

// Index returns the position of the next token.
func (c *Cursor) Index() int { return c.pos }

// LA looks k tokens ahead; LA(1) is the next token. Past the end it
// returns EOF.
func (c *Cursor) LA(k int) Kind {
	i := c.pos + k - 1
	if i < 0 || i >= len(c.tree.tokens) {
		return EOF
	}
	return c.tree.tokens[i].Kind
}

// Peek returns the next token without consuming it.
func (c *Cursor) Peek() Token {
	if c.pos >= len(c.tree.tokens) {
		return Token{Kind: EOF}
	}
	return c.tree.tokens[c.pos]
}

// Match consumes the next token if it has kind k.
func (c *Cursor) Match(k Kind) (Token, error) {
	tok := c.Peek()
	if tok.Kind != k {
		return tok, &MismatchError{Pos: c.pos, Expected: k, Got: tok.Kind}
	}
	c.pos++
	return tok, nil
}

// Skip consumes the next node together with its sub-tree.
func (c *Cursor) Skip() error {
	if c.LA(1) == EOF {
		return &MismatchError{Pos: c.pos, Expected: StructNode, Got: EOF}
	}
	c.pos++
	if c.LA(1) != Down {
		return nil
	}
	depth := 0
	for {
		switch c.LA(1) {
		case Down:
			depth++
		case Up:
			depth--
		case EOF:
			return &MismatchError{Pos: c.pos, Expected: Up, Got: EOF}
		}
		c.pos++
		if depth == 0 {
			return nil
		}
	}
}

// Mark records the current position and returns a handle to it.
func (c *Cursor) Mark() int {
	c.marks = append(c.marks, mark{pos: c.pos})
	return len(c.marks) - 1
}

// Seek moves back (or forward) to a live mark.
func (c *Cursor) Seek(m int) error {
	if m < 0 || m >= len(c.marks) {
		return fmt.Errorf("unknown mark %d", m)
	}
	if c.marks[m].released {
		return fmt.Errorf("mark %d: %w", m, ErrReleasedMark)
	}
	c.pos = c.marks[m].pos
	return nil
}

// Release invalidates a mark. The position is unchanged.
func (c *Cursor) Release(m int) {
	if m >= 0 && m < len(c.marks) {
		c.marks[m].released = true
	}
}
