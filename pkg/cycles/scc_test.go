package cycles

import (
	"testing"

	"github.com/matzehuels/untangle/pkg/wiring"
)

func build(t *testing.T, nodes []string, edges ...wiring.Edge) *wiring.Graph {
	t.Helper()
	g := wiring.New()
	for _, n := range nodes {
		if err := g.AddComponent(wiring.Component{ID: n}); err != nil {
			t.Fatalf("AddComponent(%s) = %v", n, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%v) = %v", e, err)
		}
	}
	return g
}

func edge(from, to string, kind wiring.Kind) wiring.Edge {
	return wiring.Edge{From: from, To: to, Kind: kind}
}

func TestCyclicComponents_EmptyGraph(t *testing.T) {
	g := wiring.New()
	if comps := CyclicComponents(g); len(comps) != 0 {
		t.Errorf("CyclicComponents(empty) = %v, want none", comps)
	}
}

func TestCyclicComponents_AcyclicGraph(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"},
		edge("a", "b", wiring.Field),
		edge("a", "c", wiring.Field),
		edge("b", "d", wiring.Field),
		edge("c", "d", wiring.Field),
	)
	if comps := CyclicComponents(g); len(comps) != 0 {
		t.Errorf("CyclicComponents(diamond) = %v, want none", comps)
	}
}

func TestCyclicComponents_TwoDisjointCycles(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"},
		edge("a", "b", wiring.Field),
		edge("b", "a", wiring.Field),
		edge("c", "d", wiring.Field),
		edge("d", "c", wiring.Field),
	)
	comps := CyclicComponents(g)
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2: %v", len(comps), comps)
	}
	if len(comps[0]) != 2 || len(comps[1]) != 2 {
		t.Errorf("component sizes = %d, %d, want 2, 2", len(comps[0]), len(comps[1]))
	}
}

func TestCyclicComponents_SelfLoop(t *testing.T) {
	g := build(t, []string{"a", "b"},
		edge("a", "a", wiring.Field),
		edge("a", "b", wiring.Field),
	)
	comps := CyclicComponents(g)
	if len(comps) != 1 || len(comps[0]) != 1 || comps[0][0] != "a" {
		t.Errorf("CyclicComponents() = %v, want [[a]]", comps)
	}
}

func TestCyclicComponents_BridgedCycles(t *testing.T) {
	// Two cycles joined by a one-way bridge stay separate components.
	g := build(t, []string{"a", "b", "c", "d"},
		edge("a", "b", wiring.Field),
		edge("b", "a", wiring.Field),
		edge("b", "c", wiring.Field), // bridge, not part of any cycle
		edge("c", "d", wiring.Field),
		edge("d", "c", wiring.Field),
	)
	comps := CyclicComponents(g)
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2: %v", len(comps), comps)
	}
}

func TestCyclicComponents_SoundnessAgainstEnumeration(t *testing.T) {
	// Every node pair sharing an elementary cycle must share a component.
	g := build(t, []string{"a", "b", "c", "d", "e"},
		edge("a", "b", wiring.Field),
		edge("b", "c", wiring.Field),
		edge("c", "a", wiring.Field),
		edge("c", "d", wiring.Field),
		edge("d", "c", wiring.Field),
		edge("d", "e", wiring.Field),
	)
	comps := CyclicComponents(g)
	compOf := make(map[string]int)
	for i, comp := range comps {
		for _, id := range comp {
			compOf[id] = i
		}
	}

	enum := Enumerate(g, EnumerateOptions{})
	for _, c := range enum.Cycles {
		first, ok := compOf[c.Nodes[0]]
		if !ok {
			t.Fatalf("cycle node %s not in any cyclic component", c.Nodes[0])
		}
		for _, n := range c.Nodes[1:] {
			if compOf[n] != first {
				t.Errorf("cycle %s spans components %d and %d", c, first, compOf[n])
			}
		}
	}
}
