// Package generator implements the executable scheduling primitives.
//
// A generator tree is built once by the compiler and never changes shape.
// Its leaves wrap arcs; inner nodes are Queue, Sort, Heap and SwitchCase
// generators. Only readiness (pending event masks) and cached keys mutate
// during propagation.
//
// Readiness flows bottom-up. Scheduling a Leaf wakes its owner, which wakes
// its own owner the first time it gains pending work, up to the root. Each
// owner keeps the woken units in a pending list and drops entries lazily once
// they no longer have work.
//
// Execution flows top-down through Unit.Execute, which applies the
// generator's iteration policy:
//
//	one        process exactly one ready unit
//	while-one  process ready units until none is ready
//	for        one pass over a Sort's fixed order
//	while-for  repeat ordered passes until a pass changes nothing
//
// Contradictions are returned as errors and stop execution immediately.
// Nothing here is safe for concurrent use; the engine is single-threaded.
package generator
