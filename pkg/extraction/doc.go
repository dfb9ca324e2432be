// Package extraction maps logical metric names to their physical
// locations inside heterogeneous evaluator output.
//
// Upstream evaluators produce untyped nested structures whose shapes
// evolve independently. The registry decouples the rest of the pipeline
// from those shapes: descriptors declare an ordered list of candidate
// dot-paths per metric, and values are converted to a typed MetricValue
// exactly at this boundary, so untyped maps never propagate deeper into
// the pipeline.
//
// All registration is expected to complete during initialization,
// before concurrent Extract calls begin; registering while extraction
// is live is unsupported.
package extraction
