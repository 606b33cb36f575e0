package strategy

import (
	"context"
	"slices"

	"github.com/matzehuels/untangle/pkg/errors"
	"github.com/matzehuels/untangle/pkg/wiring"
)

// Plan is a Sink that records change requests instead of persisting them.
// The orchestrator uses a Plan both as the dry-run sink and to re-verify
// the graph between passes: Project replays the recorded changes onto a
// clone of the input graph so cycle detection can run against the
// would-be-transformed wiring without any source mutation.
type Plan struct {
	changes []Change
}

// NewPlan returns an empty change plan.
func NewPlan() *Plan {
	return &Plan{}
}

// Apply validates the change and, unless it is a dry run, records it.
func (p *Plan) Apply(ctx context.Context, ch Change) error {
	if err := validateChange(ch); err != nil {
		return err
	}
	if ch.DryRun {
		return nil
	}
	ch.DryRun = false
	p.changes = append(p.changes, ch)
	return nil
}

func validateChange(ch Change) error {
	switch ch.Kind {
	case ChangeDefer:
		if ch.Edge == nil {
			return errors.New(errors.ErrCodeInvalidInput, "defer change without an edge")
		}
	case ChangeConvert:
		if ch.Edge == nil {
			return errors.New(errors.ErrCodeInvalidInput, "convert change without an edge")
		}
		if ch.NewKind == ch.Edge.Kind {
			return errors.New(errors.ErrCodeInvalidInput, "conversion to the same injection kind")
		}
	case ChangeExtractInterface:
		if ch.Edge == nil || ch.Interface == "" || len(ch.Ops) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "interface extraction needs an edge, a name and operations")
		}
	case ChangeExtractMediator:
		if ch.Cycle == nil || ch.Mediator == "" || len(ch.Members) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "mediator extraction needs a cycle, a name and members")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown change kind")
	}
	return nil
}

// Len returns the number of recorded changes.
func (p *Plan) Len() int { return len(p.changes) }

// Changes returns a copy of the recorded changes in application order.
func (p *Plan) Changes() []Change {
	return slices.Clone(p.changes)
}

// Project replays the recorded changes onto a clone of g and returns the
// resulting graph. The input graph is never modified.
func (p *Plan) Project(g *wiring.Graph) *wiring.Graph {
	out := g.Clone()
	for _, ch := range p.changes {
		switch ch.Kind {
		case ChangeDefer:
			// a deferred dependency no longer participates in eager
			// initialization ordering
			out.RemoveEdge(ch.Edge.Key())

		case ChangeConvert:
			if e, ok := out.Edge(ch.Edge.Key()); ok {
				out.RemoveEdge(ch.Edge.Key())
				e.Kind = ch.NewKind
				_ = out.AddEdge(e)
			}

		case ChangeExtractInterface:
			if e, ok := out.Edge(ch.Edge.Key()); ok {
				out.RemoveEdge(ch.Edge.Key())
				e.Abstract = true
				_ = out.AddEdge(e)
			}

		case ChangeExtractMediator:
			_ = out.AddComponent(wiring.Component{ID: ch.Mediator})
			for _, e := range ch.Cycle.Edges {
				out.RemoveEdge(e.Key())
			}
			for _, m := range ch.Members {
				_ = out.AddEdge(wiring.Edge{
					From:   m,
					To:     ch.Mediator,
					Kind:   wiring.Constructor,
					Origin: "mediator:" + ch.Mediator,
				})
			}
		}
	}
	return out
}
