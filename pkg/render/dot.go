// Package render turns wiring graphs into Graphviz DOT and rasterized
// diagrams, with optional highlighting of cycle membership and selected
// feedback edges.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/untangle/pkg/wiring"
)

// Options configures wiring diagram rendering.
type Options struct {
	// CycleEdges marks edges that lie on at least one detected cycle; they
	// are drawn in red.
	CycleEdges map[wiring.EdgeKey]bool
	// SelectedEdges marks the feedback edges chosen for resolution; they are
	// drawn bold on top of the cycle coloring.
	SelectedEdges map[wiring.EdgeKey]bool
	// Detailed includes mutator lists in component labels.
	Detailed bool
}

// ToDOT converts a wiring graph to Graphviz DOT format. Edges are labelled
// with their injection kind; abstract edges are dashed. The resulting DOT
// string can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(g *wiring.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph wiring {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, id := range g.Nodes() {
		c, _ := g.Component(id)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", id, fmtLabel(c, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := fmtEdgeAttrs(e, opts)
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(c wiring.Component, detailed bool) string {
	if !detailed || len(c.Mutators) == 0 {
		return c.ID
	}
	return c.ID + "\n" + strings.Join(c.Mutators, "\n")
}

func fmtEdgeAttrs(e wiring.Edge, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", e.Kind.String())}

	style := make([]string, 0, 2)
	if e.Abstract {
		style = append(style, "dashed")
	}
	if opts.SelectedEdges[e.Key()] {
		style = append(style, "bold")
	}
	if len(style) > 0 {
		attrs = append(attrs, fmt.Sprintf("style=%q", strings.Join(style, ",")))
	}
	if opts.CycleEdges[e.Key()] || opts.SelectedEdges[e.Key()] {
		attrs = append(attrs, "color=red", "fontcolor=red")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
