package graphio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/untangle/pkg/errors"
	"github.com/matzehuels/untangle/pkg/wiring"
)

// ReadJSON decodes a JSON wiring graph from r.
//
// The input must be a JSON object with "components" and "edges" arrays:
//
//	{
//	  "components": [{"id": "billing.Invoicer"}, {"id": "ledger.Store"}],
//	  "edges": [{"from": "billing.Invoicer", "to": "ledger.Store", "kind": "constructor"}]
//	}
//
// Each component must have a unique, non-empty "id". Optional fields:
//   - mutators: declared mutator method names
//   - helpers: map from operation name to the helper operations it calls
//
// Each edge must have "from" and "to" referencing component IDs, and a
// "kind" of "field", "setter", "constructor" or "factory_method". Optional
// fields:
//   - origin: where in the source model the dependency is declared
//   - abstract: whether the declared type is an interface or abstract class
//   - ops: the operations the source invokes on the target
//
// ReadJSON fails on malformed JSON, duplicate component IDs, and edges
// referencing unknown components. Duplicate edges (same from, to and kind)
// are collapsed silently.
//
// The returned graph is independent of r and can be modified safely after
// ReadJSON returns. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*wiring.Graph, error) {
	var data graphDoc
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode graph")
	}

	g := wiring.New()
	for _, c := range data.Components {
		if g.HasComponent(c.ID) {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "duplicate component id %q", c.ID)
		}
		comp := wiring.Component{ID: c.ID, Mutators: c.Mutators, Helpers: c.Helpers}
		if err := g.AddComponent(comp); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "component %q", c.ID)
		}
	}
	for _, e := range data.Edges {
		kind, err := wiring.ParseKind(e.Kind)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s -> %s", e.From, e.To)
		}
		err = g.AddEdge(wiring.Edge{
			From:     e.From,
			To:       e.To,
			Kind:     kind,
			Origin:   e.Origin,
			Abstract: e.Abstract,
			Ops:      e.Ops,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnknownNode, err, "edge %s -> %s", e.From, e.To)
		}
	}

	return g, nil
}

// ImportJSON reads the JSON graph file at path. It opens the file, decodes
// it with [ReadJSON] and closes the file, wrapping failures with the path
// for context.
func ImportJSON(path string) (*wiring.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
