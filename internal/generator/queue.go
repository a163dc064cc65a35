package generator

import (
	"fmt"
	"slices"
)

// Queue is a FIFO work list of ready units. A unit that stays ready after
// executing, or is woken again meanwhile, goes back to the end.
type Queue struct {
	genBase
}

// NewQueue builds a queue with the one or while-one policy.
func NewQueue(units []Unit, p Policy) (*Queue, error) {
	if err := checkUnits(units); err != nil {
		return nil, err
	}
	if p != One && p != WhileOne {
		return nil, fmt.Errorf("queue %s: %w", p, ErrPolicy)
	}
	q := &Queue{}
	q.init(q, units, p)
	return q, nil
}

func (q *Queue) Kind() Kind { return KindQueue }

// ProcessOne executes the oldest ready unit.
func (q *Queue) ProcessOne(rt Runtime) (bool, error) {
	for i, u := range q.pending {
		if !u.Ready() {
			continue
		}
		q.pending = slices.Delete(q.pending, i, i+1)
		b := u.base()
		b.queued = false
		changed, err := u.Execute(rt)
		if err != nil {
			return changed, err
		}
		if u.Pending() && !b.queued {
			b.queued = true
			q.pending = append(q.pending, u)
		}
		return changed, nil
	}
	return false, nil
}

func (q *Queue) Execute(rt Runtime) (bool, error) {
	return q.loop(rt, q.ProcessOne)
}
