package engine

import (
	"encoding/json"
	"fmt"
)

// BuildInput assembles the engine input document from an evaluation
// context and optional rule parameters. The context is deep-copied, so
// the caller's structures are never mutated and the returned document
// is independently serializable. The "params" key is always present in
// the output, as an empty object when no parameters apply; provided
// parameters override same-named entries already in the context.
func BuildInput(evalCtx map[string]any, params map[string]any) (map[string]any, error) {
	input, err := deepCopy(evalCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to copy evaluation context: %w", err)
	}
	if input == nil {
		input = make(map[string]any)
	}

	merged := make(map[string]any)
	if existing, ok := input["params"].(map[string]any); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range params {
		copied, err := deepCopyValue(v)
		if err != nil {
			return nil, fmt.Errorf("failed to copy parameter %q: %w", k, err)
		}
		merged[k] = copied
	}
	input["params"] = merged

	return input, nil
}

// deepCopy clones a nested map through a JSON round-trip, which also
// verifies the context is serializable before it reaches the engine.
func deepCopy(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func deepCopyValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
