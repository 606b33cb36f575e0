package cache

// Keyer derives cache keys for the analyzer's cacheable artifacts.
// Implementations must be pure: identical inputs yield identical keys.
type Keyer interface {
	// GraphKey identifies a wiring graph by its content hash.
	GraphKey(graphHash string) string

	// ReportKey identifies an analysis report: the graph content plus every
	// option that can change the result.
	ReportKey(graphHash string, opts ReportKeyOpts) string
}

// ReportKeyOpts holds the analysis options that influence report content.
// All fields participate in the key hash, so adding a field automatically
// invalidates stale entries.
type ReportKeyOpts struct {
	MaxCycles int      `json:"max_cycles"`
	Passes    int      `json:"passes"`
	Priority  []string `json:"priority"`
	DryRun    bool     `json:"dry_run"`
}

// DefaultKeyer is the standard key derivation scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for a wiring graph.
func (k *DefaultKeyer) GraphKey(graphHash string) string {
	return "graph:" + graphHash
}

// ReportKey generates a key for an analysis report.
func (k *DefaultKeyer) ReportKey(graphHash string, opts ReportKeyOpts) string {
	return hashKey("report", graphHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation,
// e.g. per-user namespaces in a shared Redis.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// GraphKey generates a prefixed key for a wiring graph.
func (k *ScopedKeyer) GraphKey(graphHash string) string {
	return k.prefix + k.inner.GraphKey(graphHash)
}

// ReportKey generates a prefixed key for an analysis report.
func (k *ScopedKeyer) ReportKey(graphHash string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(graphHash, opts)
}
