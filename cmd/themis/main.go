// Themis is a compliance evaluation engine for AI application
// interactions.
//
// It discovers versioned Rego rule modules from a catalog tree,
// resolves category requests to dependency-closed bundles, and
// evaluates interaction records against them through an external
// decision engine, producing per-policy findings and an aggregate
// compliance verdict.
//
// Usage:
//
//	# Evaluate an interaction record against the global rules
//	themis eval --category global --input interaction.json
//
//	# Pin a rule version
//	themis eval --category global --rule-version v1 --input interaction.json
//
//	# List the cataloged rule modules
//	themis catalog list
//
//	# Show the resolved bundle for a category
//	themis catalog deps --category global
//
//	# Watch the catalog and serve metrics
//	themis watch
//
//	# Query stored evaluation runs
//	themis runs list
//	themis runs show <run-id>
package main

func main() {
	Execute()
}
