package cycles

import (
	"github.com/matzehuels/untangle/pkg/wiring"
)

// DefaultMaxCycles caps enumeration so dense graphs (where the number of
// elementary cycles is exponential in the node count) return a truncated
// partial result instead of hanging.
const DefaultMaxCycles = 10000

// EnumerateOptions configures cycle enumeration.
type EnumerateOptions struct {
	// MaxCycles is the enumeration cap. Zero selects DefaultMaxCycles;
	// a negative value disables the cap entirely.
	MaxCycles int
}

// Enumeration is the result of enumerating elementary cycles.
type Enumeration struct {
	// Cycles lists every elementary cycle found, each exactly once, in the
	// deterministic order Johnson's algorithm produces them.
	Cycles []Cycle `json:"cycles"`

	// Truncated is set when the cycle cap was hit. Downstream selection still
	// works on the partial list, but its hitting-set guarantee only covers
	// the cycles that were enumerated.
	Truncated bool `json:"truncated,omitempty"`
}

// Enumerate finds all elementary cycles of the graph using Johnson's
// algorithm, run separately inside each strongly connected component that
// can contain a cycle. Self-loops are length-1 cycles; parallel edges of
// different injection kinds close distinct cycles over the same node
// sequence, because the search tracks edges rather than node adjacency.
//
// Complexity is O((V+E)·(C+1)) with C the number of cycles emitted.
func Enumerate(g *wiring.Graph, opts EnumerateOptions) Enumeration {
	max := opts.MaxCycles
	if max == 0 {
		max = DefaultMaxCycles
	}

	e := &enumerator{g: g, max: max}
	for _, comp := range CyclicComponents(g) {
		e.component(comp)
		if e.truncated {
			break
		}
	}
	return Enumeration{Cycles: e.cycles, Truncated: e.truncated}
}

type enumerator struct {
	g         *wiring.Graph
	max       int // negative means unlimited
	cycles    []Cycle
	truncated bool

	// Johnson state, reset per root node.
	blocked  map[string]bool
	blockMap map[string]map[string]struct{}
}

// component enumerates every cycle whose nodes all lie in comp. Members are
// in graph insertion order, which is the total order that guarantees each
// cycle is discovered exactly once: a cycle is only ever emitted from the
// search rooted at its least node.
func (e *enumerator) component(comp []string) {
	for si := 0; si < len(comp); si++ {
		if e.truncated {
			return
		}
		s := comp[si]
		rest := comp[si:]

		// Re-restrict to the strongly connected component of s within the
		// remaining nodes; searching outside it cannot reach back to s.
		allowed := subComponent(e.g, rest, s)
		if len(allowed) == 1 && !hasSelfLoop(e.g, s) {
			continue
		}
		e.circuit(s, allowed)
	}
}

// subComponent returns the members of the SCC containing s in the subgraph
// induced by rest, as a set.
func subComponent(g *wiring.Graph, rest []string, s string) map[string]struct{} {
	in := make(map[string]struct{}, len(rest))
	for _, id := range rest {
		in[id] = struct{}{}
	}
	comps := stronglyConnected(rest, func(id string) []string {
		var succ []string
		for _, edge := range g.Outgoing(id) {
			if _, ok := in[edge.To]; ok {
				succ = append(succ, edge.To)
			}
		}
		return succ
	})
	for _, comp := range comps {
		for _, id := range comp {
			if id == s {
				set := make(map[string]struct{}, len(comp))
				for _, m := range comp {
					set[m] = struct{}{}
				}
				return set
			}
		}
	}
	return map[string]struct{}{s: {}}
}

// jframe is one explicit frame of the unrolled Johnson DFS.
type jframe struct {
	v     string
	edges []wiring.Edge
	i     int
	found bool
}

// circuit runs Johnson's blocked search from s over the allowed node set.
// The classic recursion is expressed as an explicit frame stack so deep
// cycles in large graphs cannot exhaust the call stack.
func (e *enumerator) circuit(s string, allowed map[string]struct{}) {
	e.blocked = make(map[string]bool, len(allowed))
	e.blockMap = make(map[string]map[string]struct{}, len(allowed))

	adjacency := func(v string) []wiring.Edge {
		var edges []wiring.Edge
		for _, edge := range e.g.Outgoing(v) {
			if _, ok := allowed[edge.To]; ok {
				edges = append(edges, edge)
			}
		}
		return edges
	}

	var (
		frames    []*jframe
		pathNodes []string
		pathEdges []wiring.Edge
	)
	push := func(v string) {
		e.blocked[v] = true
		pathNodes = append(pathNodes, v)
		frames = append(frames, &jframe{v: v, edges: adjacency(v)})
	}
	push(s)

	for len(frames) > 0 {
		f := frames[len(frames)-1]

		descended := false
		for f.i < len(f.edges) {
			edge := f.edges[f.i]
			f.i++
			if edge.To == s {
				e.emit(pathNodes, append(pathEdges, edge))
				f.found = true
				if e.truncated {
					return
				}
			} else if !e.blocked[edge.To] {
				pathEdges = append(pathEdges, edge)
				push(edge.To)
				descended = true
				break
			}
		}
		if descended {
			continue
		}

		// All edges of f.v explored: either reopen the node (a cycle passed
		// through it) or defer unblocking to the standard block map.
		if f.found {
			e.unblock(f.v)
		} else {
			for _, edge := range f.edges {
				set := e.blockMap[edge.To]
				if set == nil {
					set = make(map[string]struct{})
					e.blockMap[edge.To] = set
				}
				set[f.v] = struct{}{}
			}
		}

		frames = frames[:len(frames)-1]
		pathNodes = pathNodes[:len(pathNodes)-1]
		if len(pathEdges) > 0 {
			pathEdges = pathEdges[:len(pathEdges)-1]
		}
		if len(frames) > 0 && f.found {
			frames[len(frames)-1].found = true
		}
	}
}

// unblock reopens v and transitively every node whose blocking depended on
// v, using a worklist instead of recursion.
func (e *enumerator) unblock(v string) {
	work := []string{v}
	for len(work) > 0 {
		u := work[len(work)-1]
		work = work[:len(work)-1]
		e.blocked[u] = false
		for w := range e.blockMap[u] {
			if e.blocked[w] {
				work = append(work, w)
			}
		}
		delete(e.blockMap, u)
	}
}

func (e *enumerator) emit(nodes []string, edges []wiring.Edge) {
	e.cycles = append(e.cycles, newCycle(nodes, edges))
	if e.max >= 0 && len(e.cycles) >= e.max {
		e.truncated = true
	}
}
