package cycles

import (
	"slices"

	"github.com/matzehuels/untangle/pkg/wiring"
)

// Priority orders injection kinds from easiest to hardest to eliminate
// structurally. It is a tie-break policy for the selector, not a
// correctness requirement, and is configurable.
type Priority []wiring.Kind

// DefaultPriority prefers field edges (trivially deferrable), then setter,
// then constructor (convertible), and factory-method edges last.
var DefaultPriority = Priority{wiring.Field, wiring.Setter, wiring.Constructor, wiring.FactoryMethod}

// rank returns the position of k in the priority list; kinds not listed
// sort after every listed kind.
func (p Priority) rank(k wiring.Kind) int {
	for i, kind := range p {
		if kind == k {
			return i
		}
	}
	return len(p)
}

// SelectFeedback picks a near-minimal set of edges whose removal breaks
// every given cycle: a greedy hitting-set approximation. Each round selects
// the edge covering the most not-yet-hit cycles, breaking ties by kind
// priority and then by lexicographic (from, to), so the result is fully
// deterministic. A nil priority falls back to DefaultPriority.
//
// The returned set always satisfies the hitting-set invariant: every input
// cycle contains at least one selected edge.
func SelectFeedback(cs []Cycle, prio Priority) []wiring.Edge {
	if len(cs) == 0 {
		return nil
	}
	if prio == nil {
		prio = DefaultPriority
	}

	byKey := make(map[wiring.EdgeKey]wiring.Edge)
	covers := make(map[wiring.EdgeKey][]int)
	var keys []wiring.EdgeKey
	for i, c := range cs {
		for _, e := range c.Edges {
			key := e.Key()
			if _, seen := byKey[key]; !seen {
				byKey[key] = e
				keys = append(keys, key)
			}
			covers[key] = append(covers[key], i)
		}
	}

	// Candidate order is itself the tie-break order, so the linear scan
	// below only has to compare coverage counts.
	slices.SortFunc(keys, func(a, b wiring.EdgeKey) int {
		if d := prio.rank(a.Kind) - prio.rank(b.Kind); d != 0 {
			return d
		}
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To != b.To {
			if a.To < b.To {
				return -1
			}
			return 1
		}
		return int(a.Kind) - int(b.Kind)
	})

	hit := make([]bool, len(cs))
	remaining := len(cs)
	var selected []wiring.Edge

	for remaining > 0 {
		best := -1
		bestCount := 0
		for i, key := range keys {
			count := 0
			for _, ci := range covers[key] {
				if !hit[ci] {
					count++
				}
			}
			if count > bestCount {
				best, bestCount = i, count
			}
		}
		if best < 0 {
			break // unreachable: every cycle has at least one edge
		}
		key := keys[best]
		selected = append(selected, byKey[key])
		for _, ci := range covers[key] {
			if !hit[ci] {
				hit[ci] = true
				remaining--
			}
		}
	}
	return selected
}
