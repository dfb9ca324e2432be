package extraction

import (
	"strings"
)

// Descriptor declares where a logical metric lives inside evaluator
// output: an ordered list of candidate dot-paths plus a default.
type Descriptor struct {
	// Name is the logical metric name.
	Name string

	// Paths is the ordered list of candidate dot-paths. They are tried
	// in order and the first present key wins, even when its value is
	// falsy (0, false, ""); only total absence falls back to Default.
	Paths []string

	// Default is the value used when no candidate path is present.
	Default any

	// DisplayName is the human-readable name for reports. Defaults to
	// Name when empty.
	DisplayName string
}

// Group is a named, ordered collection of descriptors, typically one
// per evaluator type (fairness, toxicity, ...).
type Group struct {
	// Name identifies the group in the registry.
	Name string

	// Descriptors are applied in order during extraction.
	Descriptors []Descriptor
}

// extract resolves the descriptor against an evaluation result.
func (d Descriptor) extract(result map[string]any) MetricValue {
	display := d.DisplayName
	if display == "" {
		display = d.Name
	}

	for _, path := range d.Paths {
		if v, ok := lookupPath(result, path); ok {
			return FromAny(d.Name, display, v)
		}
	}
	return FromAny(d.Name, display, d.Default)
}

// lookupPath walks a dot-path through nested maps. The boolean reports
// key presence, so present-but-falsy values are distinguishable from
// absent ones.
func lookupPath(m map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var current any = m

	for _, seg := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
