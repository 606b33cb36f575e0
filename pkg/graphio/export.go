package graphio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/untangle/pkg/errors"
	"github.com/matzehuels/untangle/pkg/wiring"
)

type graphDoc struct {
	Components []componentDoc `json:"components"`
	Edges      []edgeDoc      `json:"edges"`
}

type componentDoc struct {
	ID       string              `json:"id"`
	Mutators []string            `json:"mutators,omitempty"`
	Helpers  map[string][]string `json:"helpers,omitempty"`
}

type edgeDoc struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Kind     string   `json:"kind"`
	Origin   string   `json:"origin,omitempty"`
	Abstract bool     `json:"abstract,omitempty"`
	Ops      []string `json:"ops,omitempty"`
}

// WriteJSON encodes the wiring graph as JSON and writes it to w. Components
// appear in insertion order and edges in declaration order, so output is
// deterministic and can be re-imported with [ReadJSON].
func WriteJSON(g *wiring.Graph, w io.Writer) error {
	out := graphDoc{
		Components: make([]componentDoc, 0, g.NodeCount()),
		Edges:      make([]edgeDoc, 0, g.EdgeCount()),
	}

	for _, id := range g.Nodes() {
		c, _ := g.Component(id)
		out.Components = append(out.Components, componentDoc{
			ID:       c.ID,
			Mutators: c.Mutators,
			Helpers:  c.Helpers,
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edgeDoc{
			From:     e.From,
			To:       e.To,
			Kind:     e.Kind.String(),
			Origin:   e.Origin,
			Abstract: e.Abstract,
			Ops:      e.Ops,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode graph")
	}
	return nil
}

// ExportJSON writes the wiring graph to a JSON file at path. This is a
// convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *wiring.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
