// Package graph provides an undirected graph variable with an
// envelope/kernel domain.
//
// The envelope holds every node and edge that may still belong to the
// solution, the kernel those that must. The kernel is always a subgraph of
// the envelope; a change that would break this is a contradiction.
// Propagators read changes incrementally through a DeltaMonitor.
package graph
