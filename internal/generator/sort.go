package generator

import (
	"fmt"
	"slices"
	"sort"
)

// Sort visits its units in an order fixed at construction by their keys.
// Without keys the declaration order is kept.
type Sort struct {
	genBase

	order   []Unit
	reverse bool
}

// NewSort builds a sorted list. Either every unit has a key or none has.
func NewSort(units []Unit, p Policy, reverse bool) (*Sort, error) {
	if err := checkUnits(units); err != nil {
		return nil, err
	}
	keys := make([]int, len(units))
	keyed := 0
	for i, u := range units {
		if k, ok := u.Key(); ok {
			keys[i] = k
			keyed++
		}
	}
	if keyed != 0 && keyed != len(units) {
		return nil, fmt.Errorf("%d of %d units: %w", len(units)-keyed, len(units), ErrMissingKeys)
	}

	idx := make([]int, len(units))
	for i := range idx {
		idx[i] = i
	}
	if keyed > 0 {
		sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	}
	if reverse {
		slices.Reverse(idx)
	}
	order := make([]Unit, len(units))
	for i, j := range idx {
		order[i] = units[j]
	}

	s := &Sort{order: order, reverse: reverse}
	s.init(s, units, p)
	return s, nil
}

func (s *Sort) Kind() Kind { return KindSort }

// Order returns the fixed visiting order.
func (s *Sort) Order() []Unit { return s.order }

// Reverse reports whether the key order is flipped.
func (s *Sort) Reverse() bool { return s.reverse }

// ProcessOne executes the first ready unit in order.
func (s *Sort) ProcessOne(rt Runtime) (bool, error) {
	defer s.prune()
	for _, u := range s.order {
		if u.Ready() {
			return u.Execute(rt)
		}
	}
	return false, nil
}

// pass executes every ready unit once, in order.
func (s *Sort) pass(rt Runtime) (bool, error) {
	changed := false
	for _, u := range s.order {
		if !u.Ready() {
			continue
		}
		c, err := u.Execute(rt)
		changed = changed || c
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (s *Sort) Execute(rt Runtime) (bool, error) {
	// executed units stay listed; drop them so later wakes reach the owner
	defer s.prune()
	switch s.policy {
	case For:
		return s.pass(rt)
	case WhileFor:
		changed := false
		for {
			c, err := s.pass(rt)
			changed = changed || c
			if err != nil || !c || !s.Ready() {
				return changed, err
			}
		}
	default:
		return s.loop(rt, s.ProcessOne)
	}
}
