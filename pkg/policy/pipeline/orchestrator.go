// Package pipeline orchestrates bundle evaluation: it extracts
// canonical metrics, builds per-module engine input, invokes the
// decision engine concurrently, normalizes results and aggregates
// compliance. Per-module failures degrade to diagnostic results so one
// bad module never crashes a batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"themis-hq/themis/pkg/extraction"
	"themis-hq/themis/pkg/policy/catalog"
	"themis-hq/themis/pkg/policy/engine"
	"themis-hq/themis/pkg/policy/result"
	"themis-hq/themis/pkg/telemetry/metrics"
)

// Config contains configuration for the evaluation orchestrator.
type Config struct {
	// Concurrency bounds the number of concurrent engine invocations
	// (default: 4).
	Concurrency int `yaml:"concurrency"`

	// Batch enables evaluating a whole bundle in a single engine
	// invocation with a compound query. When the batched call fails,
	// evaluation falls back to one invocation per module so failures
	// isolate (default: true).
	Batch bool `yaml:"batch"`

	// PlaceholdersFail includes placeholder results in aggregate
	// compliance, forcing the aggregate false while placeholders exist
	// (default: false, placeholders are excluded from the AND).
	PlaceholdersFail bool `yaml:"placeholders_fail"`
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{
		Concurrency: 4,
		Batch:       true,
	}
}

// Report is the outcome of evaluating one bundle against one
// evaluation context. Results are ordered by policy ID regardless of
// completion order.
type Report struct {
	// RunID uniquely identifies this evaluation run.
	RunID string `json:"run_id"`

	// Results holds exactly one entry per requested module, success or
	// diagnosed failure.
	Results []*result.PolicyResult `json:"results"`

	// AggregateCompliant is the logical AND over the participating
	// results' compliant flags.
	AggregateCompliant bool `json:"aggregate_compliant"`

	// StartedAt is when the evaluation began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the evaluation finished.
	CompletedAt time.Time `json:"completed_at"`
}

// Sink receives completed evaluation reports, typically for durable
// storage. Sink failures are logged and never fail the evaluation.
type Sink interface {
	Record(ctx context.Context, report *Report) error
}

// Orchestrator drives bundle evaluation end to end.
type Orchestrator struct {
	engine   engine.Engine
	registry *extraction.Registry
	config   *Config
	logger   *slog.Logger
	sinks    []Sink
}

// NewOrchestrator creates an orchestrator. A nil registry disables
// canonical metric extraction.
func NewOrchestrator(eng engine.Engine, registry *extraction.Registry, config *Config, logger *slog.Logger) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		engine:   eng,
		registry: registry,
		config:   config,
		logger:   logger,
	}
}

// AddSink registers a report sink. Not safe to call concurrently with
// EvaluateBundle.
func (o *Orchestrator) AddSink(sink Sink) {
	o.sinks = append(o.sinks, sink)
}

// EvaluateBundle evaluates every module in the bundle against the
// evaluation context. Every module yields exactly one result; engine
// and schema failures surface as non-compliant results with a
// diagnostic reason. Aggregate compliance is the AND over
// non-placeholder results, or over all results when PlaceholdersFail
// is set.
func (o *Orchestrator) EvaluateBundle(ctx context.Context, bundle *catalog.Bundle, evalCtx map[string]any) (*Report, error) {
	if bundle == nil || len(bundle.Modules) == 0 {
		return nil, fmt.Errorf("bundle is empty")
	}

	started := time.Now().UTC()
	runID := uuid.NewString()

	enriched := o.enrichContext(evalCtx)
	callerParams, _ := enriched["params"].(map[string]any)

	var active, placeholders []catalog.Module
	for _, m := range bundle.Modules {
		if m.State == catalog.StatePlaceholder {
			placeholders = append(placeholders, m)
		} else {
			active = append(active, m)
		}
	}

	results := make([]*result.PolicyResult, 0, len(bundle.Modules))
	for _, m := range placeholders {
		results = append(results, result.Placeholder(m.PackageName, m.Metadata.Title))
		metrics.RecordEvaluation("placeholder")
	}

	if len(active) > 0 {
		var evaluated []*result.PolicyResult
		if o.config.Batch && len(active) > 1 {
			var err error
			evaluated, err = o.evaluateBatch(ctx, active, enriched, callerParams)
			if err != nil {
				o.logger.Warn("batched evaluation failed, falling back to per-module invocations",
					"run_id", runID,
					"modules", len(active),
					"error", err,
				)
				evaluated = o.evaluateEach(ctx, active, enriched, callerParams)
			}
		} else {
			evaluated = o.evaluateEach(ctx, active, enriched, callerParams)
		}
		results = append(results, evaluated...)
	}

	// Completion order is nondeterministic under the worker pool, so
	// order the merged results before they reach reporting.
	sort.Slice(results, func(i, j int) bool {
		return results[i].PolicyID < results[j].PolicyID
	})

	aggregate := true
	for _, r := range results {
		if r.Placeholder && !o.config.PlaceholdersFail {
			continue
		}
		aggregate = aggregate && r.Compliant
	}

	completed := time.Now().UTC()
	metrics.RecordBundleEvaluation(completed.Sub(started).Seconds())

	report := &Report{
		RunID:              runID,
		Results:            results,
		AggregateCompliant: aggregate,
		StartedAt:          started,
		CompletedAt:        completed,
	}

	o.logger.Info("bundle evaluation completed",
		"run_id", runID,
		"modules", len(bundle.Modules),
		"placeholders", len(placeholders),
		"aggregate_compliant", aggregate,
		"duration", completed.Sub(started),
	)

	for _, sink := range o.sinks {
		if err := sink.Record(ctx, report); err != nil {
			o.logger.Error("report sink failed", "run_id", runID, "error", err)
		}
	}

	return report, nil
}

// enrichContext attaches canonically extracted metrics to the
// evaluation context under "canonical_metrics", so rules can rely on
// stable logical names regardless of evaluator output shape. The
// original context is not modified.
func (o *Orchestrator) enrichContext(evalCtx map[string]any) map[string]any {
	enriched := make(map[string]any, len(evalCtx)+1)
	for k, v := range evalCtx {
		enriched[k] = v
	}

	if o.registry == nil {
		return enriched
	}

	extracted, err := o.registry.Extract(evalCtx)
	if err != nil {
		var fb *extraction.FallbackError
		if errors.As(err, &fb) {
			o.logger.Warn("canonical metric extraction degraded", "reason", fb.Reason)
		}
	}

	canonical := make(map[string]any, len(extracted))
	for name, mv := range extracted {
		canonical[name] = mv.Value()
	}
	enriched["canonical_metrics"] = canonical
	return enriched
}

// evaluateEach runs one engine invocation per module through a bounded
// worker pool. Failures isolate per module.
func (o *Orchestrator) evaluateEach(ctx context.Context, modules []catalog.Module, enriched, callerParams map[string]any) []*result.PolicyResult {
	results := make([]*result.PolicyResult, len(modules))

	p := pool.New().WithMaxGoroutines(o.config.Concurrency)
	for i, m := range modules {
		i, m := i, m
		p.Go(func() {
			results[i] = o.evaluateOne(ctx, m, enriched, callerParams)
		})
	}
	p.Wait()

	return results
}

// evaluateOne evaluates a single module and always returns a result.
func (o *Orchestrator) evaluateOne(ctx context.Context, m catalog.Module, enriched, callerParams map[string]any) *result.PolicyResult {
	input, err := engine.BuildInput(enriched, moduleDefaults(m, callerParams))
	if err != nil {
		return o.failureResult(m, fmt.Errorf("input build failed: %w", err))
	}

	raw, err := o.engine.Evaluate(ctx, []catalog.Module{m}, input)
	if err != nil {
		return o.failureResult(m, err)
	}

	values, err := result.ParseEnvelope(raw)
	if err != nil {
		return o.failureResult(m, err)
	}

	res, err := result.Normalize(m.PackageName, m.Metadata.Title, values[0])
	if err != nil {
		return o.failureResult(m, err)
	}

	o.recordOutcome(res)
	return res
}

// evaluateBatch runs all modules in a single compound-query
// invocation. It returns an error when the batch cannot be trusted as
// a whole (conflicting parameter defaults, engine failure, envelope
// mismatch); per-value normalization failures still isolate to their
// module.
func (o *Orchestrator) evaluateBatch(ctx context.Context, modules []catalog.Module, enriched, callerParams map[string]any) ([]*result.PolicyResult, error) {
	defaults := make(map[string]any)
	for _, m := range modules {
		for name, value := range moduleDefaults(m, callerParams) {
			if existing, ok := defaults[name]; ok && existing != value {
				return nil, fmt.Errorf("modules disagree on default for parameter %q", name)
			}
			defaults[name] = value
		}
	}

	input, err := engine.BuildInput(enriched, defaults)
	if err != nil {
		return nil, fmt.Errorf("input build failed: %w", err)
	}

	raw, err := o.engine.Evaluate(ctx, modules, input)
	if err != nil {
		return nil, err
	}

	values, err := result.ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if len(values) != len(modules) {
		return nil, fmt.Errorf("engine returned %d expression values for %d modules", len(values), len(modules))
	}

	results := make([]*result.PolicyResult, len(modules))
	for i, m := range modules {
		res, err := result.Normalize(m.PackageName, m.Metadata.Title, values[i])
		if err != nil {
			results[i] = o.failureResult(m, err)
			continue
		}
		o.recordOutcome(res)
		results[i] = res
	}
	return results, nil
}

// failureResult converts a per-module failure into a diagnostic
// non-compliant result.
func (o *Orchestrator) failureResult(m catalog.Module, err error) *result.PolicyResult {
	metrics.RecordEvaluation("error")
	o.logger.Error("module evaluation failed",
		"policy", m.PackageName,
		"error", err,
	)
	return &result.PolicyResult{
		PolicyID:   m.PackageName,
		PolicyName: m.Metadata.Title,
		Compliant:  false,
		Reason:     fmt.Sprintf("evaluation failed: %v", err),
		Timestamp:  time.Now().UTC(),
	}
}

func (o *Orchestrator) recordOutcome(res *result.PolicyResult) {
	if res.Compliant {
		metrics.RecordEvaluation("compliant")
	} else {
		metrics.RecordEvaluation("non_compliant")
	}
}

// moduleDefaults resolves a module's declared parameter defaults,
// filling only names the caller did not supply.
func moduleDefaults(m catalog.Module, callerParams map[string]any) map[string]any {
	if len(m.Metadata.RequiredParams) == 0 {
		return nil
	}
	defaults := make(map[string]any)
	for _, p := range m.Metadata.RequiredParams {
		if p.Default == nil {
			continue
		}
		if _, ok := callerParams[p.Name]; ok {
			continue
		}
		defaults[p.Name] = p.Default
	}
	return defaults
}
