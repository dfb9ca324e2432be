package extraction

import (
	"errors"
	"testing"
)

func TestDescriptorFirstPresentPathWins(t *testing.T) {
	desc := Descriptor{
		Name:    "toxic_fraction",
		Paths:   []string{"metrics.toxicity.toxic_fraction", "toxic_fraction"},
		Default: 0.5,
	}

	tests := []struct {
		name   string
		result map[string]any
		want   float64
	}{
		{
			name: "nested path present",
			result: map[string]any{
				"metrics": map[string]any{
					"toxicity": map[string]any{"toxic_fraction": 0.25},
				},
				"toxic_fraction": 0.99,
			},
			want: 0.25,
		},
		{
			name:   "fallback path present",
			result: map[string]any{"toxic_fraction": 0.75},
			want:   0.75,
		},
		{
			name: "falsy value wins over later path",
			result: map[string]any{
				"metrics": map[string]any{
					"toxicity": map[string]any{"toxic_fraction": 0.0},
				},
				"toxic_fraction": 0.75,
			},
			want: 0.0,
		},
		{
			name:   "absent falls back to default",
			result: map[string]any{"unrelated": true},
			want:   0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := desc.extract(tt.result)
			if got.Kind != KindNumber {
				t.Fatalf("Kind = %v, want KindNumber", got.Kind)
			}
			if got.Num != tt.want {
				t.Errorf("Num = %v, want %v", got.Num, tt.want)
			}
		})
	}
}

func TestDescriptorFalsyBoolWins(t *testing.T) {
	desc := Descriptor{
		Name:    "ftu_satisfied",
		Paths:   []string{"fairness.ftu_satisfied"},
		Default: true,
	}
	got := desc.extract(map[string]any{
		"fairness": map[string]any{"ftu_satisfied": false},
	})
	if got.Kind != KindBool || got.Bool != false {
		t.Errorf("got %v/%v, want present false, not default true", got.Kind, got.Bool)
	}
}

func TestLookupPathThroughNonMap(t *testing.T) {
	result := map[string]any{"fairness": "not a map"}
	if _, ok := lookupPath(result, "fairness.ftu_satisfied"); ok {
		t.Error("lookup through a non-map value should report absence")
	}
}

func TestRegistryExtract(t *testing.T) {
	r := NewDefaultRegistry(nil)

	result := map[string]any{
		"metrics": map[string]any{
			"fairness": map[string]any{
				"ftu_satisfied":    true,
				"race_words_count": 3,
			},
			"toxicity": map[string]any{
				"toxic_fraction": 0.1,
			},
		},
	}

	metrics, err := r.Extract(result)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if got := metrics["ftu_satisfied"]; got.Kind != KindBool || !got.Bool {
		t.Errorf("ftu_satisfied = %v/%v, want bool true", got.Kind, got.Bool)
	}
	if got := metrics["race_words_count"]; got.Num != 3 {
		t.Errorf("race_words_count = %v, want 3", got.Num)
	}
	if got := metrics["toxic_fraction"]; got.Num != 0.1 {
		t.Errorf("toxic_fraction = %v, want 0.1", got.Num)
	}

	// Absent metrics resolve to their defaults rather than disappearing.
	if got, ok := metrics["gender_words_count"]; !ok || got.Num != 0 {
		t.Errorf("gender_words_count = %v (present=%v), want default 0", got.Num, ok)
	}
	if got, ok := metrics["max_toxicity"]; !ok || got.Num != 0 {
		t.Errorf("max_toxicity = %v (present=%v), want default 0", got.Num, ok)
	}
}

func TestRegisterGroupReplacesInPlace(t *testing.T) {
	r := NewRegistry(nil)
	r.RegisterGroup(Group{Name: "a", Descriptors: []Descriptor{{Name: "x", Paths: []string{"x"}, Default: 1}}})
	r.RegisterGroup(Group{Name: "b", Descriptors: []Descriptor{{Name: "y", Paths: []string{"y"}, Default: 2}}})
	r.RegisterGroup(Group{Name: "a", Descriptors: []Descriptor{{Name: "x", Paths: []string{"x2"}, Default: 9}}})

	groups := r.Groups()
	if len(groups) != 2 || groups[0] != "a" || groups[1] != "b" {
		t.Fatalf("Groups() = %v, want [a b]", groups)
	}

	metrics, err := r.Extract(map[string]any{"x2": 7.0})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := metrics["x"]; got.Num != 7 {
		t.Errorf("x = %v, want replacement descriptor to read x2", got.Num)
	}
}

func TestCustomExtractorOverridesDescriptor(t *testing.T) {
	r := NewRegistry(nil)
	r.RegisterGroup(Group{Name: "g", Descriptors: []Descriptor{
		{Name: "score", Paths: []string{"score"}, Default: 0.0},
	}})
	r.RegisterCustomExtractor("score", func(result map[string]any) []MetricValue {
		a, aok := lookupPath(result, "parts.a")
		b, bok := lookupPath(result, "parts.b")
		if !aok || !bok {
			return nil
		}
		return []MetricValue{NewNumber("score", "Combined Score", a.(float64) + b.(float64))}
	})

	metrics, err := r.Extract(map[string]any{
		"score": 1.0,
		"parts": map[string]any{"a": 2.0, "b": 3.0},
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := metrics["score"]; got.Num != 5 {
		t.Errorf("score = %v, want custom extractor result 5", got.Num)
	}
}

func TestCustomExtractorDeclines(t *testing.T) {
	r := NewRegistry(nil)
	r.RegisterGroup(Group{Name: "g", Descriptors: []Descriptor{
		{Name: "score", Paths: []string{"score"}, Default: 0.0},
	}})
	r.RegisterCustomExtractor("score", func(result map[string]any) []MetricValue {
		return nil
	})

	metrics, err := r.Extract(map[string]any{"score": 1.0})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := metrics["score"]; got.Num != 1 {
		t.Errorf("score = %v, want descriptor value 1 when custom declines", got.Num)
	}
}

func TestCustomExtractorEmitsMultipleMetrics(t *testing.T) {
	r := NewRegistry(nil)
	r.RegisterCustomExtractor("latency", func(result map[string]any) []MetricValue {
		samples, ok := result["latency_samples"].([]any)
		if !ok || len(samples) == 0 {
			return nil
		}
		min, max := samples[0].(float64), samples[0].(float64)
		for _, s := range samples[1:] {
			v := s.(float64)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		return []MetricValue{
			NewNumber("latency_min", "Minimum Latency", min),
			NewNumber("latency_max", "Maximum Latency", max),
			{Kind: KindNumber, Num: max - min}, // unnamed, takes the registration name
		}
	})

	metrics, err := r.Extract(map[string]any{
		"latency_samples": []any{3.0, 1.0, 4.0},
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := metrics["latency_min"]; got.Num != 1 {
		t.Errorf("latency_min = %v, want 1", got.Num)
	}
	if got := metrics["latency_max"]; got.Num != 4 {
		t.Errorf("latency_max = %v, want 4", got.Num)
	}
	if got := metrics["latency"]; got.Num != 3 || got.Name != "latency" {
		t.Errorf("latency = %+v, want unnamed metric stored under registration name with value 3", got)
	}
}

func TestDisabledRegistryFallsBack(t *testing.T) {
	r := NewDefaultRegistry(nil)
	r.SetEnabled(false)

	metrics, err := r.Extract(map[string]any{
		"metrics": map[string]any{"toxic_fraction": 0.4},
	})

	var fb *FallbackError
	if !errors.As(err, &fb) {
		t.Fatalf("err = %v, want FallbackError", err)
	}
	if got := metrics["toxic_fraction"]; got.Num != 0.4 {
		t.Errorf("toxic_fraction = %v, want legacy reader to find 0.4", got.Num)
	}
}

func TestFromAnyKinds(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind Kind
	}{
		{"bool", true, KindBool},
		{"float64", 1.5, KindNumber},
		{"int", 3, KindNumber},
		{"string", "ok", KindString},
		{"map", map[string]any{"k": 1}, KindMap},
		{"nil", nil, KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromAny("m", "", tt.in); got.Kind != tt.kind {
				t.Errorf("FromAny(%v).Kind = %v, want %v", tt.in, got.Kind, tt.kind)
			}
		})
	}
}
