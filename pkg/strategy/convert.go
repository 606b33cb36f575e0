package strategy

import (
	"context"
	"slices"

	"github.com/matzehuels/untangle/pkg/wiring"
)

// Convert rewrites a constructor injection into an equivalent setter
// injection between the same endpoints. The edge survives, but in a kind
// that a later deferral pass can eliminate.
type Convert struct {
	tracker
	sink       Sink
	components ComponentLookup
}

// NewConvert returns the injection-kind conversion strategy. components is
// consulted for mutators already declared on the source, to detect naming
// collisions with the setter a conversion would introduce.
func NewConvert(sink Sink, components ComponentLookup) *Convert {
	return &Convert{sink: sink, components: components}
}

// Name implements Strategy.
func (s *Convert) Name() string { return "injection-kind-conversion" }

// Apply converts a constructor edge to a setter edge. It fails when the
// source component already declares a mutator with the name the conversion
// would generate, since silently shadowing it could change behavior.
func (s *Convert) Apply(ctx context.Context, e wiring.Edge, dryRun bool) Result {
	if e.Kind != wiring.Constructor {
		return skipped("only constructor injections can be converted, edge is %s", e.Kind)
	}

	mutator := setterName(e.To)
	if comp, ok := s.components(e.From); ok && slices.Contains(comp.Mutators, mutator) {
		return failed("component %s already declares mutator %s", e.From, mutator)
	}

	ch := Change{Kind: ChangeConvert, Edge: &e, NewKind: wiring.Setter, DryRun: dryRun}
	if err := s.sink.Apply(ctx, ch); err != nil {
		return failed("mutation sink rejected conversion: %v", err)
	}
	if !dryRun {
		s.record(e.From)
	}
	return applied(ch)
}
