package cycles

import (
	"slices"

	"github.com/matzehuels/untangle/pkg/wiring"
)

// CyclicComponents partitions the graph into strongly connected components
// and returns only those that contain at least one cycle: components of two
// or more nodes, plus single nodes carrying a self-loop. Components of size
// one without a self-loop are acyclic and discarded.
//
// The enumerator only needs to run inside these sets, since an elementary
// cycle can never cross a component boundary. Runs in O(V+E).
//
// Component members are ordered by graph insertion order, and components are
// ordered by their smallest member, so output is deterministic.
func CyclicComponents(g *wiring.Graph) [][]string {
	order := g.Nodes()
	comps := stronglyConnected(order, func(id string) []string {
		out := g.Outgoing(id)
		succ := make([]string, len(out))
		for i, e := range out {
			succ[i] = e.To
		}
		return succ
	})

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	var cyclic [][]string
	for _, comp := range comps {
		if len(comp) == 1 && !hasSelfLoop(g, comp[0]) {
			continue
		}
		slices.SortFunc(comp, func(a, b string) int { return pos[a] - pos[b] })
		cyclic = append(cyclic, comp)
	}
	slices.SortFunc(cyclic, func(a, b []string) int { return pos[a[0]] - pos[b[0]] })
	return cyclic
}

func hasSelfLoop(g *wiring.Graph, id string) bool {
	for _, e := range g.Outgoing(id) {
		if e.To == id {
			return true
		}
	}
	return false
}

// tframe is one explicit DFS frame of the iterative Tarjan walk.
type tframe struct {
	v    string
	succ []string
	i    int
}

// stronglyConnected runs an iterative Tarjan decomposition over the nodes in
// order, following succ for adjacency. succ must already be restricted to
// the node set under consideration. The recursion is unrolled onto an
// explicit frame stack so pathological graphs cannot exhaust the goroutine
// stack.
func stronglyConnected(order []string, succ func(string) []string) [][]string {
	index := make(map[string]int, len(order))
	low := make(map[string]int, len(order))
	onStack := make(map[string]bool, len(order))
	var stack []string
	var comps [][]string
	next := 0

	var frames []*tframe
	visit := func(v string) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true
		frames = append(frames, &tframe{v: v, succ: succ(v)})
	}

	for _, root := range order {
		if _, seen := index[root]; seen {
			continue
		}
		visit(root)
		for len(frames) > 0 {
			f := frames[len(frames)-1]
			if f.i < len(f.succ) {
				w := f.succ[f.i]
				f.i++
				if _, seen := index[w]; !seen {
					visit(w)
				} else if onStack[w] && index[w] < low[f.v] {
					low[f.v] = index[w]
				}
				continue
			}

			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				p := frames[len(frames)-1]
				if low[f.v] < low[p.v] {
					low[p.v] = low[f.v]
				}
			}
			if low[f.v] == index[f.v] {
				var comp []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == f.v {
						break
					}
				}
				comps = append(comps, comp)
			}
		}
	}
	return comps
}
