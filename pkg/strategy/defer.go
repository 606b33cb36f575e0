package strategy

import (
	"context"

	"github.com/matzehuels/untangle/pkg/wiring"
)

// Deferred breaks a cycle by resolving one dependency lazily, on first use,
// instead of eagerly at construction time. It is the cheapest technique and
// is tried first: the wiring between the two components is untouched except
// for when the target is materialized.
type Deferred struct {
	tracker
	sink Sink
}

// NewDeferred returns the deferred-resolution strategy writing to sink.
func NewDeferred(sink Sink) *Deferred {
	return &Deferred{sink: sink}
}

// Name implements Strategy.
func (s *Deferred) Name() string { return "deferred-resolution" }

// Apply defers the edge if its injection kind tolerates late resolution.
// Field and setter injections always do. Constructor injections do only
// when the declared dependency is abstract, since the concrete target then
// need not exist until first use. Factory-method edges can never be
// deferred: the factory produces the value as part of construction itself.
func (s *Deferred) Apply(ctx context.Context, e wiring.Edge, dryRun bool) Result {
	switch {
	case e.Kind == wiring.Field, e.Kind == wiring.Setter:
		// deferrable as-is
	case e.Abstract && e.Kind != wiring.FactoryMethod:
		// abstract constructor target: resolution can be postponed behind
		// the declared type
	default:
		return skipped("%s injection of a concrete target cannot be deferred", e.Kind)
	}

	ch := Change{Kind: ChangeDefer, Edge: &e, DryRun: dryRun}
	if err := s.sink.Apply(ctx, ch); err != nil {
		return failed("mutation sink rejected deferral: %v", err)
	}
	if !dryRun {
		s.record(e.From)
	}
	return applied(ch)
}
