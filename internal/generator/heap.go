package generator

import (
	"container/heap"
	"fmt"
)

// Heap pops the ready unit with the smallest (or largest) live key.
//
// Keys are cached per entry. The cache is stale as soon as any domain
// changed or any propagator executed since the last refresh; stale entries
// are re-evaluated on the next pop and only those whose key moved are
// re-positioned. Equal keys pop in wake order.
type Heap struct {
	genBase

	max     bool
	entries entryHeap
	stamp   uint64
	epoch   uint64
	runs    uint64
	fresh   bool
}

type entry struct {
	u     Unit
	key   int
	stamp uint64
	index int
}

// NewHeap builds a heap. Every unit must have a key.
func NewHeap(units []Unit, p Policy, max bool) (*Heap, error) {
	if err := checkUnits(units); err != nil {
		return nil, err
	}
	if p != One && p != WhileOne {
		return nil, fmt.Errorf("heap %s: %w", p, ErrPolicy)
	}
	for i, u := range units {
		if _, ok := u.Key(); !ok {
			return nil, fmt.Errorf("unit %d: %w", i, ErrMissingKeys)
		}
	}
	h := &Heap{max: max}
	h.entries.max = max
	h.init(h, units, p)
	return h, nil
}

func (h *Heap) Kind() Kind { return KindHeap }

// Max reports whether the heap pops the largest key first.
func (h *Heap) Max() bool { return h.max }

// Len returns the number of queued entries.
func (h *Heap) Len() int { return h.entries.Len() }

func (h *Heap) wake(u Unit) {
	h.push(u)
	h.signal(h)
}

func (h *Heap) push(u Unit) {
	k, _ := u.Key()
	h.stamp++
	heap.Push(&h.entries, &entry{u: u, key: k, stamp: h.stamp})
}

// refresh re-evaluates cached keys when domains changed or propagators ran
// since last time.
func (h *Heap) refresh(rt Runtime) {
	if h.fresh && rt.Changes() == h.epoch && rt.Executions() == h.runs {
		return
	}
	h.epoch = rt.Changes()
	h.runs = rt.Executions()
	h.fresh = true
	snapshot := make([]*entry, len(h.entries.items))
	copy(snapshot, h.entries.items)
	for _, e := range snapshot {
		k, _ := e.u.Key()
		if k != e.key {
			e.key = k
			heap.Fix(&h.entries, e.index)
		}
	}
}

// ProcessOne executes the ready unit at the top of the heap.
func (h *Heap) ProcessOne(rt Runtime) (bool, error) {
	h.refresh(rt)
	var held []*entry
	defer func() {
		for _, e := range held {
			heap.Push(&h.entries, e)
		}
	}()
	for h.entries.Len() > 0 {
		e := heap.Pop(&h.entries).(*entry)
		b := e.u.base()
		if !e.u.Pending() {
			b.queued = false
			continue
		}
		if !e.u.Ready() {
			held = append(held, e)
			continue
		}
		b.queued = false
		changed, err := e.u.Execute(rt)
		h.fresh = false
		if err != nil {
			return changed, err
		}
		if e.u.Pending() && !b.queued {
			b.queued = true
			h.push(e.u)
		}
		return changed, nil
	}
	return false, nil
}

func (h *Heap) Execute(rt Runtime) (bool, error) {
	return h.loop(rt, h.ProcessOne)
}

func (h *Heap) Pending() bool {
	for _, e := range h.entries.items {
		if e.u.Pending() {
			return true
		}
	}
	return false
}

func (h *Heap) Ready() bool {
	for _, e := range h.entries.items {
		if e.u.Ready() {
			return true
		}
	}
	return false
}

func (h *Heap) flush() {
	h.genBase.flush()
	clear(h.entries.items)
	h.entries.items = h.entries.items[:0]
	h.fresh = false
}

// Peek returns the unit that the next ProcessOne would consider first,
// after refreshing keys.
func (h *Heap) Peek(rt Runtime) (Unit, bool) {
	h.refresh(rt)
	if h.entries.Len() == 0 {
		return nil, false
	}
	return h.entries.items[0].u, true
}

// entryHeap implements heap.Interface ordered by key then stamp.
type entryHeap struct {
	items []*entry
	max   bool
}

func (q entryHeap) Len() int { return len(q.items) }

func (q entryHeap) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.key != b.key {
		if q.max {
			return a.key > b.key
		}
		return a.key < b.key
	}
	return a.stamp < b.stamp
}

func (q entryHeap) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(q.items)
	q.items = append(q.items, e)
}

func (q *entryHeap) Pop() any {
	old := q.items
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	q.items = old[:n-1]
	return e
}
