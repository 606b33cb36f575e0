// Package strategy implements the resolution side of the analysis: four
// interchangeable techniques that each try to eliminate one dependency edge
// (or, for the mediator, one whole cycle) selected by the feedback edge
// selector.
//
// Strategies never discover or re-validate cycles, and they never touch
// source representations directly: every structural change is expressed as a
// Change request handed to a Sink. The orchestrator decides dispatch order;
// each strategy only answers "can I eliminate this edge, and what change
// would that take".
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/untangle/pkg/cycles"
	"github.com/matzehuels/untangle/pkg/wiring"
)

// Outcome tags the result of applying a strategy to an edge.
type Outcome int

const (
	// Applied means the strategy eliminated (or rewired) the edge and issued
	// a change request to the sink.
	Applied Outcome = iota
	// Skipped means the strategy does not apply to this kind of edge; the
	// orchestrator moves on to the next strategy.
	Skipped
	// Failed means the strategy applies but could not complete (for example
	// a conflicting mutator, or a sink rejection). The orchestrator records
	// the failure and stops trying further strategies for this edge.
	Failed
)

var outcomeNames = map[Outcome]string{
	Applied: "applied",
	Skipped: "skipped",
	Failed:  "failed",
}

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalJSON encodes the outcome as its name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes an outcome from its name.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for v, name := range outcomeNames {
		if name == s {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("unknown outcome: %q", s)
}

// Result is the tagged outcome of one strategy application.
type Result struct {
	Outcome Outcome `json:"outcome"`
	// Reason explains Skipped and Failed outcomes.
	Reason string `json:"reason,omitempty"`
	// Change is the request issued to the sink for Applied outcomes.
	Change *Change `json:"change,omitempty"`
}

func applied(ch Change) Result { return Result{Outcome: Applied, Change: &ch} }
func skipped(reason string, args ...any) Result {
	return Result{Outcome: Skipped, Reason: fmt.Sprintf(reason, args...)}
}
func failed(reason string, args ...any) Result {
	return Result{Outcome: Failed, Reason: fmt.Sprintf(reason, args...)}
}

// ChangeKind names the structural transformation a change requests.
type ChangeKind int

const (
	// ChangeDefer marks a dependency as lazily resolved instead of eagerly
	// wired, breaking the cycle at initialization time.
	ChangeDefer ChangeKind = iota
	// ChangeConvert rewrites a constructor edge into an equivalent setter
	// edge between the same endpoints.
	ChangeConvert
	// ChangeExtractInterface introduces an abstract capability type covering
	// the operations the source invokes on the target, and repoints the
	// edge's declared type to it.
	ChangeExtractInterface
	// ChangeExtractMediator hoists the coupled operations of a whole cycle
	// into a new coordinating unit that every member depends on.
	ChangeExtractMediator
)

var changeKindNames = map[ChangeKind]string{
	ChangeDefer:            "defer",
	ChangeConvert:          "convert",
	ChangeExtractInterface: "extract_interface",
	ChangeExtractMediator:  "extract_mediator",
}

// String returns the lowercase wire name of the change kind.
func (k ChangeKind) String() string {
	if s, ok := changeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("change(%d)", int(k))
}

// MarshalJSON encodes the change kind as its wire name.
func (k ChangeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a change kind from its wire name.
func (k *ChangeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for v, name := range changeKindNames {
		if name == s {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown change kind: %q", s)
}

// Change is one structural transformation request. Which fields are set
// depends on Kind: edge-level changes carry Edge, the mediator change
// carries Cycle, Mediator and Members.
type Change struct {
	Kind ChangeKind `json:"kind"`

	Edge  *wiring.Edge  `json:"edge,omitempty"`
	Cycle *cycles.Cycle `json:"cycle,omitempty"`

	// NewKind is the target injection kind for ChangeConvert.
	NewKind wiring.Kind `json:"new_kind,omitempty"`
	// Interface is the name of the extracted capability type.
	Interface string `json:"interface,omitempty"`
	// Mediator is the name of the new coordinating unit.
	Mediator string `json:"mediator,omitempty"`
	// Ops lists the operations the interface exposes or the mediator hoists.
	Ops []string `json:"ops,omitempty"`
	// Members lists the components rewired to depend on the mediator.
	Members []string `json:"members,omitempty"`

	// DryRun asks the sink to validate the change without persisting it.
	DryRun bool `json:"-"`
}

// Sink accepts structural change requests. How a change is textually
// realized (file rewriting, import management, class generation) is
// entirely the sink's business; strategies only describe the change.
//
// A sink must validate DryRun changes exactly as it would real ones, so a
// dry-run application reports the same outcome a subsequent real
// application would.
type Sink interface {
	Apply(ctx context.Context, ch Change) error
}

// ComponentLookup resolves a component ID to its provider-supplied
// metadata. *wiring.Graph.Component satisfies this signature.
type ComponentLookup func(id string) (wiring.Component, bool)

// Strategy is the common contract of all resolution techniques.
type Strategy interface {
	// Name identifies the strategy in reports and logs.
	Name() string

	// Apply attempts to eliminate the given edge. With dryRun set the
	// strategy reports the outcome a real application would have, without
	// mutating the sink or its own modified-set.
	Apply(ctx context.Context, e wiring.Edge, dryRun bool) Result

	// Modified returns the IDs of components this strategy has changed so
	// far, sorted, for later external persistence.
	Modified() []string
}

// tracker accumulates modified component IDs for a strategy.
type tracker struct {
	modified map[string]struct{}
}

func (t *tracker) record(ids ...string) {
	if t.modified == nil {
		t.modified = make(map[string]struct{})
	}
	for _, id := range ids {
		t.modified[id] = struct{}{}
	}
}

// Modified returns the accumulated component IDs in sorted order.
func (t *tracker) Modified() []string {
	ids := make([]string, 0, len(t.modified))
	for id := range t.modified {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// baseName extracts the trailing identifier from a component ID, which may
// be qualified with '.' or '/' separators (e.g. "billing/ledger.Store").
func baseName(id string) string {
	if i := strings.LastIndexAny(id, "./"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// setterName is the mutator a conversion would introduce for the given
// dependency, e.g. "SetStore" for a dependency on "ledger.Store".
func setterName(target string) string {
	return "Set" + baseName(target)
}
