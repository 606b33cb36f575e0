package wiring

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddComponent] when the component
	// ID is empty. All components must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("component ID must not be empty")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From
	// component does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source component")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To
	// component does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target component")
)

// Kind describes how a dependency edge was established in the wiring
// metadata. It is a closed enumeration: resolution strategies switch over it
// exhaustively, and the edge selector uses it for tie-breaking.
type Kind int

const (
	// Field is a dependency injected directly into a field.
	Field Kind = iota
	// Setter is a dependency injected through a mutator method.
	Setter
	// Constructor is a dependency passed as a constructor argument.
	Constructor
	// FactoryMethod is a dependency resolved inside a factory method.
	// Factory edges can be neither deferred nor converted.
	FactoryMethod
)

var kindNames = map[Kind]string{
	Field:         "field",
	Setter:        "setter",
	Constructor:   "constructor",
	FactoryMethod: "factory_method",
}

var kindValues = map[string]Kind{
	"field":          Field,
	"setter":         Setter,
	"constructor":    Constructor,
	"factory_method": FactoryMethod,
}

// String returns the lowercase wire name of the kind (e.g. "factory_method").
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a wire name back into a Kind.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindValues[s]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown injection kind: %q", s)
}

// MarshalJSON encodes the kind as its wire name.
func (k Kind) MarshalJSON() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown injection kind: %d", int(k))
	}
	return json.Marshal(s)
}

// UnmarshalJSON decodes a kind from its wire name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// EdgeKey is the identity of an edge: the (from, to, kind) triple.
// Everything else on an Edge is metadata carried for the strategies.
type EdgeKey struct {
	From string
	To   string
	Kind Kind
}

// Edge is a directed dependency between two components. Multiple edges
// between the same pair may coexist as long as their kinds differ.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind Kind   `json:"kind"`

	// Origin is an opaque handle into the source-level context the edge was
	// extracted from (e.g. a file:line locator). The algorithms never read
	// it; strategies pass it through to the mutation sink.
	Origin string `json:"origin,omitempty"`

	// Abstract marks edges whose declared type has been repointed to an
	// extracted interface. Abstract non-factory edges become deferrable.
	Abstract bool `json:"abstract,omitempty"`

	// Ops lists the operations the source invokes on the target across this
	// edge, as reported by the component model provider. Consumed by the
	// interface-extraction and mediator strategies.
	Ops []string `json:"ops,omitempty"`
}

// Key returns the identity triple of the edge.
func (e Edge) Key() EdgeKey { return EdgeKey{From: e.From, To: e.To, Kind: e.Kind} }

// Component is one node of the wiring graph plus the provider-supplied
// metadata the strategies need: declared mutators (conversion conflict
// detection) and the operation → helper-operation map (mediator hoisting).
type Component struct {
	ID       string              `json:"id"`
	Mutators []string            `json:"mutators,omitempty"`
	Helpers  map[string][]string `json:"helpers,omitempty"`
}

// Graph is a directed dependency graph over components. It is built once per
// analysis run and treated as read-only by the algorithmic layer; the only
// mutation path after construction is cloning and rewriting a copy when a
// resolution plan is projected.
//
// Node iteration order is insertion order, which doubles as the total order
// the cycle enumerator uses. Graph is not safe for concurrent mutation.
type Graph struct {
	order      []string
	components map[string]Component
	edges      []Edge
	outgoing   map[string][]Edge
	incoming   map[string][]Edge
	edgeSet    map[EdgeKey]struct{}
}

// New creates an empty wiring graph.
func New() *Graph {
	return &Graph{
		components: make(map[string]Component),
		outgoing:   make(map[string][]Edge),
		incoming:   make(map[string][]Edge),
		edgeSet:    make(map[EdgeKey]struct{}),
	}
}

// AddComponent inserts a component into the graph. Adding a component whose
// ID is already present is a no-op (the first definition wins); duplicate
// definition detection is the provider's responsibility, not the graph's.
// Returns ErrInvalidNodeID for an empty ID.
func (g *Graph) AddComponent(c Component) error {
	if c.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.components[c.ID]; exists {
		return nil
	}
	g.components[c.ID] = c
	g.order = append(g.order, c.ID)
	return nil
}

// AddEdge adds a directed edge between two existing components. Adding an
// edge whose (from, to, kind) triple is already present is a no-op.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint was
// never added.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.components[e.From]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.From)
	}
	if _, ok := g.components[e.To]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.To)
	}
	key := e.Key()
	if _, dup := g.edgeSet[key]; dup {
		return nil
	}
	g.edgeSet[key] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e)
	g.incoming[e.To] = append(g.incoming[e.To], e)
	return nil
}

// RemoveEdge removes the edge with the given identity triple if present.
// Removing an absent edge is a no-op.
func (g *Graph) RemoveEdge(key EdgeKey) {
	if _, ok := g.edgeSet[key]; !ok {
		return
	}
	delete(g.edgeSet, key)
	match := func(e Edge) bool { return e.Key() == key }
	g.edges = slices.DeleteFunc(g.edges, match)
	g.outgoing[key.From] = slices.DeleteFunc(g.outgoing[key.From], match)
	g.incoming[key.To] = slices.DeleteFunc(g.incoming[key.To], match)
}

// Nodes returns all component IDs in insertion order.
func (g *Graph) Nodes() []string { return slices.Clone(g.order) }

// HasComponent reports whether a component with the given ID exists.
func (g *Graph) HasComponent(id string) bool {
	_, ok := g.components[id]
	return ok
}

// Component returns the component with the given ID.
func (g *Graph) Component(id string) (Component, bool) {
	c, ok := g.components[id]
	return c, ok
}

// Edge returns the edge with the given identity triple.
func (g *Graph) Edge(key EdgeKey) (Edge, bool) {
	if _, ok := g.edgeSet[key]; !ok {
		return Edge{}, false
	}
	for _, e := range g.outgoing[key.From] {
		if e.Key() == key {
			return e, true
		}
	}
	return Edge{}, false
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Outgoing returns the edges leaving the given component.
// The returned slice is a read-only view; do not modify it.
func (g *Graph) Outgoing(id string) []Edge { return g.outgoing[id] }

// Incoming returns the edges arriving at the given component.
// The returned slice is a read-only view; do not modify it.
func (g *Graph) Incoming(id string) []Edge { return g.incoming[id] }

// NodeCount returns the number of components in the graph.
func (g *Graph) NodeCount() int { return len(g.components) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Clone returns a deep copy of the graph. The copy preserves insertion order,
// so analyses over the clone are deterministic relative to the original.
func (g *Graph) Clone() *Graph {
	out := New()
	for _, id := range g.order {
		c := g.components[id]
		c.Mutators = slices.Clone(c.Mutators)
		if c.Helpers != nil {
			helpers := make(map[string][]string, len(c.Helpers))
			for op, hs := range c.Helpers {
				helpers[op] = slices.Clone(hs)
			}
			c.Helpers = helpers
		}
		_ = out.AddComponent(c)
	}
	for _, e := range g.edges {
		e.Ops = slices.Clone(e.Ops)
		_ = out.AddEdge(e)
	}
	return out
}
