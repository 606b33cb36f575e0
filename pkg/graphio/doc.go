// Package graphio reads and writes wiring graphs in the JSON interchange
// format produced by component model providers, and exports analysis
// reports in the same style. The format round-trips: a graph written with
// WriteJSON can be re-read with ReadJSON.
package graphio
