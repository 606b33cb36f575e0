// Package cycles implements the detection side of the analysis: strongly
// connected component decomposition (the cheap pre-filter), exhaustive
// elementary cycle enumeration (Johnson's algorithm, restricted to each
// non-trivial component), and the greedy feedback edge selection that picks
// a near-minimal set of edges hitting every enumerated cycle.
//
// All functions treat the wiring graph as read-only and produce
// deterministic output: node order is the graph's insertion order, and
// tie-breaks in the selector are fully specified.
package cycles
