// Package result normalizes raw decision-engine output into typed
// policy results. Parsing is strict about the engine's top-level
// envelope and deliberately loose about the shape of each rule's
// report value, which varies across rule generations.
package result

import (
	"encoding/json"
	"strconv"
	"time"

	"themis-hq/themis/pkg/extraction"
)

// PolicyResult is the normalized outcome of evaluating one rule module
// against one input document.
type PolicyResult struct {
	// PolicyID is the rule module's package name.
	PolicyID string `json:"policy_id"`

	// PolicyName is the human-readable rule title.
	PolicyName string `json:"policy_name"`

	// Compliant reports whether the input satisfied the rule. It is
	// always a concrete boolean, never absent.
	Compliant bool `json:"compliant"`

	// Placeholder marks results from rule modules that are declared but
	// not yet implemented. Placeholder results report Compliant false
	// but are excluded from aggregation by default.
	Placeholder bool `json:"placeholder,omitempty"`

	// Metrics holds the typed metrics the rule reported.
	Metrics map[string]extraction.MetricValue `json:"metrics,omitempty"`

	// Reason is the rule's explanation of its verdict, when provided.
	Reason string `json:"reason,omitempty"`

	// Recommendations lists remediation suggestions from the rule.
	Recommendations []string `json:"recommendations,omitempty"`

	// Timestamp records when the result was normalized.
	Timestamp time.Time `json:"timestamp"`
}

// envelope mirrors the engine's eval output: a result array whose
// entries carry one expression value per query term.
type envelope struct {
	Result []struct {
		Expressions []struct {
			Value json.RawMessage `json:"value"`
			Text  string          `json:"text"`
		} `json:"expressions"`
	} `json:"result"`
}

// ParseEnvelope validates the engine's top-level output shape and
// returns the expression values in query order. The top-level envelope
// is validated strictly: a missing or empty result array, more than one
// result entry, or an entry without expressions, is a SchemaError.
// Evaluating a query against a single input yields exactly one entry;
// extras would mean expression values are being dropped.
func ParseEnvelope(raw []byte) ([]json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &SchemaError{Path: "(root)", Message: "engine output is not valid JSON", Cause: err}
	}
	if len(env.Result) == 0 {
		return nil, &SchemaError{Path: "result", Message: "engine output has no result entries"}
	}
	if len(env.Result) > 1 {
		return nil, &SchemaError{
			Path:    "result",
			Message: "engine output has " + strconv.Itoa(len(env.Result)) + " result entries, expected exactly one",
		}
	}

	entry := env.Result[0]
	if len(entry.Expressions) == 0 {
		return nil, &SchemaError{Path: "result[0].expressions", Message: "engine result entry has no expressions"}
	}

	values := make([]json.RawMessage, 0, len(entry.Expressions))
	for i, expr := range entry.Expressions {
		if len(expr.Value) == 0 {
			return nil, &SchemaError{
				Path:    "result[0].expressions[" + strconv.Itoa(i) + "].value",
				Message: "expression has no value",
			}
		}
		values = append(values, expr.Value)
	}
	return values, nil
}

// Normalize converts one expression value into a PolicyResult. The
// value node is parsed loosely: the verdict may appear under
// "compliant" or the legacy "allow" key, and metrics, reason and
// recommendations are picked up when present. A value without a
// boolean verdict is a SchemaError.
func Normalize(policyID, policyName string, value json.RawMessage) (*PolicyResult, error) {
	var node map[string]any
	if err := json.Unmarshal(value, &node); err != nil {
		return nil, &SchemaError{
			Path:    policyID,
			Message: "rule report is not a JSON object",
			Cause:   err,
		}
	}

	compliant, ok := verdict(node)
	if !ok {
		return nil, &SchemaError{
			Path:    policyID,
			Message: `rule report has no boolean "compliant" or "allow" key`,
		}
	}

	res := &PolicyResult{
		PolicyID:   policyID,
		PolicyName: policyName,
		Compliant:  compliant,
		Timestamp:  time.Now().UTC(),
	}

	if reason, ok := node["reason"].(string); ok {
		res.Reason = reason
	}
	res.Recommendations = stringSlice(node["recommendations"])

	if metrics, ok := node["metrics"].(map[string]any); ok {
		res.Metrics = make(map[string]extraction.MetricValue, len(metrics))
		for name, v := range metrics {
			res.Metrics[name] = normalizeMetric(name, v)
		}
	}

	return res, nil
}

// Placeholder returns the fixed result reported for a declared but
// unimplemented rule module.
func Placeholder(policyID, policyName string) *PolicyResult {
	return &PolicyResult{
		PolicyID:    policyID,
		PolicyName:  policyName,
		Compliant:   false,
		Placeholder: true,
		Reason:      "rule module is a placeholder and has not been implemented",
		Timestamp:   time.Now().UTC(),
	}
}

// verdict locates the boolean verdict in a report node. Rules written
// against the current contract report "compliant"; older rules report
// "allow". A non-boolean value under either key does not count.
func verdict(node map[string]any) (bool, bool) {
	if v, ok := node["compliant"].(bool); ok {
		return v, true
	}
	if v, ok := node["allow"].(bool); ok {
		return v, true
	}
	return false, false
}

// normalizeMetric converts one reported metric. Rules may report
// either a bare value or a {name, display_name, value} object.
func normalizeMetric(name string, v any) extraction.MetricValue {
	if obj, ok := v.(map[string]any); ok {
		if inner, present := obj["value"]; present {
			display, _ := obj["display_name"].(string)
			return extraction.FromAny(name, display, inner)
		}
	}
	return extraction.FromAny(name, "", v)
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
