package cycles

import (
	"slices"
	"strings"

	"github.com/matzehuels/untangle/pkg/wiring"
)

// Cycle is one elementary cycle: a node sequence in which no node repeats,
// closed by an implicit edge from the last node back to the first.
//
// Edges[i] connects Nodes[i] to Nodes[(i+1) % len(Nodes)], so a cycle always
// has exactly as many edges as nodes; a self-loop is a cycle of length one.
// Cycles are rotation-normalized on construction so the lexicographically
// smallest node comes first, which makes equality and deduplication
// well-defined even though the enumerator may discover the same loop from
// different entry points.
type Cycle struct {
	Nodes []string      `json:"nodes"`
	Edges []wiring.Edge `json:"edges"`
}

// newCycle builds a normalized cycle from a traversal path. The inputs are
// copied, so callers may keep reusing their slices.
func newCycle(nodes []string, edges []wiring.Edge) Cycle {
	n := len(nodes)
	pivot := 0
	for i := 1; i < n; i++ {
		if nodes[i] < nodes[pivot] {
			pivot = i
		}
	}
	c := Cycle{
		Nodes: make([]string, n),
		Edges: make([]wiring.Edge, n),
	}
	for i := 0; i < n; i++ {
		c.Nodes[i] = nodes[(pivot+i)%n]
		c.Edges[i] = edges[(pivot+i)%n]
	}
	return c
}

// Len returns the number of nodes on the cycle.
func (c Cycle) Len() int { return len(c.Nodes) }

// Contains reports whether the edge with the given identity lies on the cycle.
func (c Cycle) Contains(key wiring.EdgeKey) bool {
	return slices.ContainsFunc(c.Edges, func(e wiring.Edge) bool { return e.Key() == key })
}

// Key returns a canonical string identity for the cycle. Two cycles are
// equal iff their keys are equal: same normalized node sequence closed by
// the same edges. Parallel edges of different kinds therefore yield
// distinct keys for the same node sequence.
func (c Cycle) Key() string {
	var b strings.Builder
	for i, n := range c.Nodes {
		if i > 0 {
			b.WriteByte('>')
		}
		b.WriteString(n)
		b.WriteByte('#')
		b.WriteString(c.Edges[i].Kind.String())
	}
	return b.String()
}

// String renders the cycle as "a -> b -> c -> a" for logs and reports.
func (c Cycle) String() string {
	if len(c.Nodes) == 0 {
		return ""
	}
	return strings.Join(c.Nodes, " -> ") + " -> " + c.Nodes[0]
}
