package extraction

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the variant held by a MetricValue.
type Kind int

const (
	// KindBool holds a boolean metric.
	KindBool Kind = iota

	// KindNumber holds a numeric metric.
	KindNumber

	// KindString holds a string metric.
	KindString

	// KindMap holds a structured metric.
	KindMap
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// MetricValue is a typed metric: a tagged union of bool, number, string
// or map. Exactly one of Bool, Num, Str or Map is meaningful, selected
// by Kind.
type MetricValue struct {
	// Name is the logical metric name.
	Name string `json:"name"`

	// DisplayName is the human-readable metric name for reports.
	DisplayName string `json:"display_name,omitempty"`

	// Kind selects the active variant.
	Kind Kind `json:"-"`

	// Bool is the value when Kind is KindBool.
	Bool bool `json:"-"`

	// Num is the value when Kind is KindNumber.
	Num float64 `json:"-"`

	// Str is the value when Kind is KindString.
	Str string `json:"-"`

	// Map is the value when Kind is KindMap.
	Map map[string]any `json:"-"`
}

// NewBool returns a boolean MetricValue.
func NewBool(name, displayName string, v bool) MetricValue {
	return MetricValue{Name: name, DisplayName: displayName, Kind: KindBool, Bool: v}
}

// NewNumber returns a numeric MetricValue.
func NewNumber(name, displayName string, v float64) MetricValue {
	return MetricValue{Name: name, DisplayName: displayName, Kind: KindNumber, Num: v}
}

// NewString returns a string MetricValue.
func NewString(name, displayName string, v string) MetricValue {
	return MetricValue{Name: name, DisplayName: displayName, Kind: KindString, Str: v}
}

// NewMap returns a structured MetricValue.
func NewMap(name, displayName string, v map[string]any) MetricValue {
	return MetricValue{Name: name, DisplayName: displayName, Kind: KindMap, Map: v}
}

// FromAny converts an untyped evaluator value into a MetricValue.
// Unrecognized types degrade to their string representation rather
// than failing.
func FromAny(name, displayName string, v any) MetricValue {
	switch val := v.(type) {
	case bool:
		return NewBool(name, displayName, val)
	case float64:
		return NewNumber(name, displayName, val)
	case float32:
		return NewNumber(name, displayName, float64(val))
	case int:
		return NewNumber(name, displayName, float64(val))
	case int32:
		return NewNumber(name, displayName, float64(val))
	case int64:
		return NewNumber(name, displayName, float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return NewString(name, displayName, val.String())
		}
		return NewNumber(name, displayName, f)
	case string:
		return NewString(name, displayName, val)
	case map[string]any:
		return NewMap(name, displayName, val)
	case nil:
		return NewString(name, displayName, "")
	default:
		return NewString(name, displayName, fmt.Sprintf("%v", val))
	}
}

// Value returns the active variant as an untyped value, for
// serialization toward the engine input document.
func (m MetricValue) Value() any {
	switch m.Kind {
	case KindBool:
		return m.Bool
	case KindNumber:
		return m.Num
	case KindString:
		return m.Str
	case KindMap:
		return m.Map
	default:
		return nil
	}
}

// UnmarshalJSON restores a metric from its serialized form, inferring
// the kind from the value's JSON type.
func (m *MetricValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Value       any    `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = FromAny(raw.Name, raw.DisplayName, raw.Value)
	return nil
}

// MarshalJSON emits the metric as {"name": ..., "display_name": ...,
// "value": ...}.
func (m MetricValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name,omitempty"`
		Value       any    `json:"value"`
	}{
		Name:        m.Name,
		DisplayName: m.DisplayName,
		Value:       m.Value(),
	})
}
