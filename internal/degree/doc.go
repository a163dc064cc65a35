// Package degree provides node degree propagators over undirected graph
// variables.
package degree
