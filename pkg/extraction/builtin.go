package extraction

import "log/slog"

// Built-in descriptor groups covering the standard evaluator outputs.
// Candidate paths reflect the shapes the evaluators have emitted across
// releases, newest first.

// FairnessGroup describes counterfactual fairness metrics.
func FairnessGroup() Group {
	return Group{
		Name: "fairness",
		Descriptors: []Descriptor{
			{
				Name:        "ftu_satisfied",
				DisplayName: "Fairness Through Unawareness",
				Paths: []string{
					"metrics.fairness.ftu_satisfied",
					"fairness.ftu_satisfied",
					"ftu_satisfied",
				},
				Default: false,
			},
			{
				Name:        "race_words_count",
				DisplayName: "Race Words Count",
				Paths: []string{
					"metrics.fairness.race_words_count",
					"fairness.race_words_count",
					"race_words_count",
				},
				Default: 0,
			},
			{
				Name:        "gender_words_count",
				DisplayName: "Gender Words Count",
				Paths: []string{
					"metrics.fairness.gender_words_count",
					"fairness.gender_words_count",
					"gender_words_count",
				},
				Default: 0,
			},
			{
				Name:        "counterfactual_score",
				DisplayName: "Counterfactual Score",
				Paths: []string{
					"metrics.fairness.counterfactual_score",
					"fairness.counterfactual_score",
				},
				Default: 0.0,
			},
		},
	}
}

// ToxicityGroup describes content toxicity metrics.
func ToxicityGroup() Group {
	return Group{
		Name: "toxicity",
		Descriptors: []Descriptor{
			{
				Name:        "toxic_fraction",
				DisplayName: "Toxic Fraction",
				Paths: []string{
					"metrics.toxicity.toxic_fraction",
					"toxicity.toxic_fraction",
					"toxic_fraction",
				},
				Default: 0.0,
			},
			{
				Name:        "max_toxicity",
				DisplayName: "Maximum Toxicity",
				Paths: []string{
					"metrics.toxicity.max_toxicity",
					"toxicity.max_toxicity",
					"max_toxicity",
				},
				Default: 0.0,
			},
			{
				Name:        "toxicity_probability",
				DisplayName: "Toxicity Probability",
				Paths: []string{
					"metrics.toxicity.toxicity_probability",
					"toxicity.toxicity_probability",
					"toxicity_probability",
				},
				Default: 0.0,
			},
		},
	}
}

// StereotypeGroup describes stereotype detection metrics.
func StereotypeGroup() Group {
	return Group{
		Name: "stereotype",
		Descriptors: []Descriptor{
			{
				Name:        "stereotype_score",
				DisplayName: "Stereotype Score",
				Paths: []string{
					"metrics.stereotype.stereotype_score",
					"stereotype.stereotype_score",
					"stereotype_score",
				},
				Default: 0.0,
			},
			{
				Name:        "gender_bias_detected",
				DisplayName: "Gender Bias Detected",
				Paths: []string{
					"metrics.stereotype.gender_bias_detected",
					"stereotype.gender_bias_detected",
					"gender_bias_detected",
				},
				Default: false,
			},
			{
				Name:        "racial_bias_detected",
				DisplayName: "Racial Bias Detected",
				Paths: []string{
					"metrics.stereotype.racial_bias_detected",
					"stereotype.racial_bias_detected",
					"racial_bias_detected",
				},
				Default: false,
			},
		},
	}
}

// PerformanceGroup describes latency and throughput metrics.
func PerformanceGroup() Group {
	return Group{
		Name: "performance",
		Descriptors: []Descriptor{
			{
				Name:        "response_time_ms",
				DisplayName: "Response Time (ms)",
				Paths: []string{
					"metrics.performance.response_time_ms",
					"performance.response_time_ms",
					"response_time_ms",
				},
				Default: 0,
			},
			{
				Name:        "throughput_rps",
				DisplayName: "Throughput (req/s)",
				Paths: []string{
					"metrics.performance.throughput_rps",
					"performance.throughput_rps",
				},
				Default: 0,
			},
		},
	}
}

// AccuracyGroup describes model accuracy metrics.
func AccuracyGroup() Group {
	return Group{
		Name: "accuracy",
		Descriptors: []Descriptor{
			{
				Name:        "factual_accuracy",
				DisplayName: "Factual Accuracy",
				Paths: []string{
					"metrics.accuracy.factual_accuracy",
					"accuracy.factual_accuracy",
				},
				Default: 0.0,
			},
			{
				Name:        "hallucination_rate",
				DisplayName: "Hallucination Rate",
				Paths: []string{
					"metrics.accuracy.hallucination_rate",
					"accuracy.hallucination_rate",
				},
				Default: 0.0,
			},
		},
	}
}

// NewDefaultRegistry returns a registry preloaded with the built-in
// descriptor groups.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.RegisterGroup(FairnessGroup())
	r.RegisterGroup(ToxicityGroup())
	r.RegisterGroup(StereotypeGroup())
	r.RegisterGroup(PerformanceGroup())
	r.RegisterGroup(AccuracyGroup())
	return r
}
