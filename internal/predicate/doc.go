// Package predicate implements the boolean expressions that select arcs for
// group declarations.
//
// Predicate is a sealed interface: only types in this package implement it,
// so evaluators and encoders can switch exhaustively over the variants.
//
// Predicate types:
//   - True: matches every arc
//   - Compare: attribute <op> integer literal
//   - MemberOf: arc already belongs to one of the named groups
//   - Not, And, Or: connectives
//
// Evaluation is pure. And/Or short-circuit, which is unobservable because no
// predicate has side effects.
package predicate
