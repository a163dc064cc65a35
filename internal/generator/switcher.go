package generator

import (
	"errors"
	"fmt"

	"github.com/roach88/arcflow/internal/arc"
	"github.com/roach88/arcflow/internal/attr"
)

// Switcher routes one inner generator by the live value of a dynamic
// attribute.
//
// It exposes one SwitchCase per value in [0, max]. A case is ready when a
// pending leaf of the inner generator currently evaluates to its value;
// values outside the range are clamped. Executing a case gates the inner
// generator to that value and drives it. Leaf values are read again before
// every delegation, so a leaf whose value moved during search is served by
// its new case.
type Switcher struct {
	by     attr.Attribute
	gs     *arc.Groups
	max    int
	inner  Generator
	leaves []*Leaf
	cases  []*SwitchCase

	// active is the value the inner generator is gated to, -1 when open.
	active int
}

// NewSwitcher wraps inner, which must own exactly leaves.
func NewSwitcher(by attr.Attribute, max int, inner Generator, leaves []*Leaf, gs *arc.Groups) (*Switcher, error) {
	if len(leaves) == 0 {
		return nil, ErrEmpty
	}
	if max < 0 {
		return nil, fmt.Errorf("switch on %s: negative range %d", by, max)
	}
	if inner == nil {
		return nil, errors.New("switch without inner generator")
	}
	s := &Switcher{by: by, gs: gs, max: max, inner: inner, leaves: leaves, active: -1}
	inner.base().owner = s
	for _, l := range leaves {
		l.gate = s
	}
	s.cases = make([]*SwitchCase, max+1)
	for v := range s.cases {
		s.cases[v] = &SwitchCase{sw: s, value: v}
	}
	return s, nil
}

// Cases returns one generator per value, in value order.
func (s *Switcher) Cases() []*SwitchCase { return s.cases }

// Inner returns the gated generator.
func (s *Switcher) Inner() Generator { return s.inner }

// By returns the switching attribute.
func (s *Switcher) By() attr.Attribute { return s.by }

// Max returns the upper bound of the value range.
func (s *Switcher) Max() int { return s.max }

func (s *Switcher) value(l *Leaf) int {
	v := s.by.Eval(l.arc, s.gs)
	return min(max(v, 0), s.max)
}

func (s *Switcher) admits(l *Leaf) bool {
	return s.active < 0 || s.value(l) == s.active
}

func (s *Switcher) wake(Unit) {
	// the inner generator has no list to sit in; keep it signalling
	s.inner.base().queued = false
	s.Refresh()
}

// Refresh wakes every case that currently has a pending leaf.
func (s *Switcher) Refresh() {
	seen := make([]bool, len(s.cases))
	for _, l := range s.leaves {
		if !l.Pending() {
			continue
		}
		v := s.value(l)
		if !seen[v] {
			seen[v] = true
			s.cases[v].signal(s.cases[v])
		}
	}
}

func (s *Switcher) hasPending(value int) bool {
	for _, l := range s.leaves {
		if l.Pending() && s.value(l) == value {
			return true
		}
	}
	return false
}

// gated runs fn with the inner generator restricted to value.
func (s *Switcher) gated(value int, fn func() (bool, error)) (bool, error) {
	prev := s.active
	s.active = value
	defer func() { s.active = prev }()
	return fn()
}

// SwitchCase is the view of a Switcher for one attribute value.
type SwitchCase struct {
	unitBase

	sw    *Switcher
	value int
}

// Value returns the attribute value this case serves.
func (c *SwitchCase) Value() int { return c.value }

// Switcher returns the coordinating switcher.
func (c *SwitchCase) Switcher() *Switcher { return c.sw }

func (c *SwitchCase) Arc() *arc.Arc { return nil }
func (c *SwitchCase) NumChildren() int { return 0 }
func (c *SwitchCase) Child(int) attr.Node { return nil }

// Key is the case value.
func (c *SwitchCase) Key() (int, bool) { return c.value, true }

func (c *SwitchCase) Pending() bool { return c.sw.hasPending(c.value) }

func (c *SwitchCase) Ready() bool { return c.sw.hasPending(c.value) }

func (c *SwitchCase) Units() []Unit { return nil }
func (c *SwitchCase) Policy() Policy { return c.sw.inner.Policy() }
func (c *SwitchCase) Kind() Kind { return KindSwitch }

// AttachKey is a no-op: a case is always keyed by its value.
func (c *SwitchCase) AttachKey(*attr.Combined, *arc.Groups) {}
func (c *SwitchCase) KeyAttr() *attr.Combined { return nil }

func (c *SwitchCase) Execute(rt Runtime) (bool, error) {
	return c.sw.gated(c.value, func() (bool, error) { return c.sw.inner.Execute(rt) })
}

func (c *SwitchCase) ProcessOne(rt Runtime) (bool, error) {
	return c.sw.gated(c.value, func() (bool, error) { return c.sw.inner.ProcessOne(rt) })
}

func (c *SwitchCase) ProcessToFixpoint(rt Runtime) (bool, error) {
	changed := false
	for c.Ready() {
		ch, err := c.Execute(rt)
		changed = changed || ch
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (c *SwitchCase) flush() {
	c.queued = false
	c.sw.active = -1
	c.sw.inner.flush()
}
