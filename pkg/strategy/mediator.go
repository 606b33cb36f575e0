package strategy

import (
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/untangle/pkg/cycles"
	"github.com/matzehuels/untangle/pkg/wiring"
)

// CycleLookup maps an edge back to a cycle that contains it, or nil when no
// enumerated cycle does. The orchestrator supplies this from its
// enumeration output.
type CycleLookup func(key wiring.EdgeKey) *cycles.Cycle

// Mediator dissolves a whole cycle at once: the operations the members
// invoke on each other are hoisted into a new coordinating unit, and every
// member is rewired to depend on that unit instead of each other. It is the
// strategy of last resort for edges the cheaper techniques reject, in
// particular factory-method edges.
type Mediator struct {
	tracker
	sink       Sink
	components ComponentLookup
	lookup     CycleLookup
}

// NewMediator returns the method-extraction strategy. components is
// consulted for helper closures when hoisting operations; lookup resolves
// the triggering edge to its enclosing cycle.
func NewMediator(sink Sink, components ComponentLookup, lookup CycleLookup) *Mediator {
	return &Mediator{sink: sink, components: components, lookup: lookup}
}

// Name implements Strategy.
func (s *Mediator) Name() string { return "method-extraction" }

// Apply hoists the coupled operations of the cycle containing the edge into
// a new mediator unit. The hoisted set is the union of every cycle edge's
// invoked operations, closed over the helpers those operations transitively
// require on their defining components.
func (s *Mediator) Apply(ctx context.Context, e wiring.Edge, dryRun bool) Result {
	c := s.lookup(e.Key())
	if c == nil {
		return skipped("edge %s -> %s is not on any enumerated cycle", e.From, e.To)
	}

	ch := Change{
		Kind:     ChangeExtractMediator,
		Cycle:    c,
		Mediator: mediatorName(c.Nodes),
		Ops:      s.hoistedOps(c),
		Members:  slices.Clone(c.Nodes),
		DryRun:   dryRun,
	}
	if err := s.sink.Apply(ctx, ch); err != nil {
		return failed("mutation sink rejected extraction: %v", err)
	}
	if !dryRun {
		s.record(c.Nodes...)
	}
	return applied(ch)
}

// hoistedOps collects the operations invoked along the cycle, closed over
// each defining component's helper graph, sorted and deduplicated.
func (s *Mediator) hoistedOps(c *cycles.Cycle) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(op string) bool {
		if _, ok := seen[op]; ok {
			return false
		}
		seen[op] = struct{}{}
		out = append(out, op)
		return true
	}

	for _, e := range c.Edges {
		comp, _ := s.components(e.To)
		// walk the helper closure of each invoked operation on the
		// component that defines it
		stack := slices.Clone(e.Ops)
		for len(stack) > 0 {
			op := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !add(op) {
				continue
			}
			stack = append(stack, comp.Helpers[op]...)
		}
	}
	slices.Sort(out)
	return out
}

// mediatorName derives a deterministic name for the coordinating unit from
// the cycle members, e.g. "OrderShipmentMediator".
func mediatorName(members []string) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = baseName(m)
	}
	slices.Sort(names)
	return strings.Join(names, "") + "Mediator"
}
