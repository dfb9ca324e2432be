package extraction

import (
	"log/slog"
	"sort"
)

// CustomExtractor derives metrics from the whole evaluation result. It
// is used when a metric cannot be expressed as a simple path lookup,
// such as values computed from several fields at once. Returning an
// empty slice declines, leaving descriptor-produced values untouched.
type CustomExtractor func(result map[string]any) []MetricValue

// FallbackError reports that the registry was disabled and extraction
// fell back to the legacy fixed-shape reader.
type FallbackError struct {
	// Reason describes why the fallback was taken.
	Reason string
}

// Error implements the error interface.
func (e *FallbackError) Error() string {
	return "metric extraction fell back to legacy fixed-shape reader: " + e.Reason
}

// Registry maps logical metric names to physical locations in evaluator
// output. Groups and custom extractors are applied in registration
// order so extraction output is deterministic.
//
// Registration is not safe for use concurrently with Extract; complete
// all registration during initialization.
type Registry struct {
	groupOrder []string
	groups     map[string]Group

	customOrder []string
	custom      map[string]CustomExtractor

	enabled bool
	logger  *slog.Logger
}

// NewRegistry returns an empty, enabled registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		groups:  make(map[string]Group),
		custom:  make(map[string]CustomExtractor),
		enabled: true,
		logger:  logger,
	}
}

// RegisterGroup registers a descriptor group. Registering a group with
// an existing name replaces it in place, keeping its original position
// in the application order.
func (r *Registry) RegisterGroup(group Group) {
	if _, ok := r.groups[group.Name]; !ok {
		r.groupOrder = append(r.groupOrder, group.Name)
	}
	r.groups[group.Name] = group
}

// RegisterCustomExtractor registers a custom extractor under a name.
// Custom extractors run after all descriptor groups and override
// descriptor-produced values for the metric names they emit. A metric
// returned without a name is stored under the registration name.
// Re-registering a name replaces the extractor in place.
func (r *Registry) RegisterCustomExtractor(name string, fn CustomExtractor) {
	if _, ok := r.custom[name]; !ok {
		r.customOrder = append(r.customOrder, name)
	}
	r.custom[name] = fn
}

// SetEnabled toggles registry-based extraction. When disabled, Extract
// uses the legacy fixed-shape reader and reports a FallbackError
// alongside its results.
func (r *Registry) SetEnabled(enabled bool) {
	r.enabled = enabled
}

// Groups returns the registered group names in application order.
func (r *Registry) Groups() []string {
	out := make([]string, len(r.groupOrder))
	copy(out, r.groupOrder)
	return out
}

// Extract resolves every registered metric against the evaluation
// result. The returned map is keyed by logical metric name. The error
// is non-nil only when the registry is disabled and the legacy reader
// was used; the results are still valid in that case.
func (r *Registry) Extract(result map[string]any) (map[string]MetricValue, error) {
	if !r.enabled {
		r.logger.Warn("metric extraction registry disabled, using legacy fixed-shape reader")
		return r.extractLegacy(result), &FallbackError{Reason: "registry disabled"}
	}

	out := make(map[string]MetricValue)
	for _, name := range r.groupOrder {
		group := r.groups[name]
		for _, desc := range group.Descriptors {
			out[desc.Name] = desc.extract(result)
		}
	}
	for _, name := range r.customOrder {
		for _, mv := range r.custom[name](result) {
			if mv.Name == "" {
				mv.Name = name
			}
			out[mv.Name] = mv
		}
	}
	return out, nil
}

// extractLegacy reads the historical fixed result shape directly:
// metrics.<name>, falling back to top-level keys. It predates the
// descriptor registry and exists only as a compatibility escape hatch.
func (r *Registry) extractLegacy(result map[string]any) map[string]MetricValue {
	out := make(map[string]MetricValue)

	source := result
	if nested, ok := result["metrics"].(map[string]any); ok {
		source = nested
	}

	names := make([]string, 0, len(source))
	for name := range source {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		out[name] = FromAny(name, name, source[name])
	}
	return out
}
