// Package strategy defines the declarative description of a propagation
// strategy and its arena-indexed, rewindable form.
//
// A Description is a list of group declarations plus an optional structure.
// Structures nest Struct, Reg and GroupRef elements; registered structures
// re-instantiate a group through Many (static partition) or Each (recursive
// partition) nodes.
//
// Flatten turns a structure into an immutable Tree: a pre-order token stream
// with Down/Up markers around every node that has children. The compiler
// walks it with a Cursor. Partitions need to read the same sub-tree several
// times, which the cursor supports through Mark, Seek and Release rather than
// rebuilding anything.
package strategy
