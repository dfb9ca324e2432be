package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestParseHeaderFull(t *testing.T) {
	content := `# Title: Toxicity Check
# Description: Fails interactions whose toxicity exceeds the threshold.
# Status: active
# References:
#   - https://example.org/toxicity-guidance
# RequiredMetrics:
#   - metrics.toxicity.toxic_fraction
#   - metrics.toxicity.max_toxicity
# RequiredParams:
#   - toxicity_threshold (default: 0.1)
#   - mode (default: "standard")
#   - strict (default: true)
#   - unconstrained

package global.v1.toxicity

import data.global.v1.common
import future.keywords.if
import rego.v1

default compliant := false
`

	h, err := parseHeader("toxicity.rego", []byte(content))
	if err != nil {
		t.Fatalf("parseHeader failed: %v", err)
	}

	if h.PackageName != "global.v1.toxicity" {
		t.Errorf("PackageName = %q", h.PackageName)
	}
	if h.State != StateActive {
		t.Errorf("State = %q, want active", h.State)
	}
	if h.Metadata.Title != "Toxicity Check" {
		t.Errorf("Title = %q", h.Metadata.Title)
	}

	// Only data imports are dependencies; keyword imports are not.
	if len(h.Imports) != 1 || h.Imports[0] != "global.v1.common" {
		t.Errorf("Imports = %v, want [global.v1.common]", h.Imports)
	}

	if len(h.Metadata.RequiredMetrics) != 2 {
		t.Fatalf("RequiredMetrics = %v", h.Metadata.RequiredMetrics)
	}
	if h.Metadata.RequiredMetrics[0] != "metrics.toxicity.toxic_fraction" {
		t.Errorf("RequiredMetrics[0] = %q", h.Metadata.RequiredMetrics[0])
	}

	if len(h.Metadata.RequiredParams) != 4 {
		t.Fatalf("RequiredParams = %v", h.Metadata.RequiredParams)
	}
	params := make(map[string]any)
	for _, p := range h.Metadata.RequiredParams {
		params[p.Name] = p.Default
	}
	if params["toxicity_threshold"] != 0.1 {
		t.Errorf("toxicity_threshold default = %v, want 0.1", params["toxicity_threshold"])
	}
	if params["mode"] != "standard" {
		t.Errorf("mode default = %v, want standard without quotes", params["mode"])
	}
	if params["strict"] != true {
		t.Errorf("strict default = %v, want true", params["strict"])
	}
	if params["unconstrained"] != nil {
		t.Errorf("unconstrained default = %v, want nil", params["unconstrained"])
	}

	if len(h.Metadata.References) != 1 {
		t.Errorf("References = %v", h.Metadata.References)
	}
}

func TestParseHeaderNumericDefaultsStayNumeric(t *testing.T) {
	// "0" and "1" are valid inputs to strconv.ParseBool; they must
	// still come back as numbers, not booleans, or comparisons against
	// them inside rules always fail.
	content := `# RequiredParams:
#   - max_protected_words (default: 0)
#   - min_score (default: 1)
#   - enabled (default: true)
#   - disabled (default: false)

package a.v1.b
`
	h, err := parseHeader("defaults.rego", []byte(content))
	if err != nil {
		t.Fatalf("parseHeader failed: %v", err)
	}

	params := make(map[string]any)
	for _, p := range h.Metadata.RequiredParams {
		params[p.Name] = p.Default
	}
	if got, ok := params["max_protected_words"].(float64); !ok || got != 0 {
		t.Errorf("max_protected_words default = %v (%T), want float64(0)", params["max_protected_words"], params["max_protected_words"])
	}
	if got, ok := params["min_score"].(float64); !ok || got != 1 {
		t.Errorf("min_score default = %v (%T), want float64(1)", params["min_score"], params["min_score"])
	}
	if params["enabled"] != true {
		t.Errorf("enabled default = %v, want true", params["enabled"])
	}
	if params["disabled"] != false {
		t.Errorf("disabled default = %v, want false", params["disabled"])
	}
}

func TestParseHeaderPlaceholderStatus(t *testing.T) {
	content := `# Title: Biometric Categorisation
# Status: placeholder

package eu_ai_act.v1.biometric

default compliant := false
`
	h, err := parseHeader("biometric.rego", []byte(content))
	if err != nil {
		t.Fatalf("parseHeader failed: %v", err)
	}
	if h.State != StatePlaceholder {
		t.Errorf("State = %q, want placeholder", h.State)
	}
}

func TestParseHeaderMinimal(t *testing.T) {
	h, err := parseHeader("min.rego", []byte("package a.v1.b\n"))
	if err != nil {
		t.Fatalf("parseHeader failed: %v", err)
	}
	if h.PackageName != "a.v1.b" {
		t.Errorf("PackageName = %q", h.PackageName)
	}
	if h.State != StateActive {
		t.Errorf("State = %q, want active by default", h.State)
	}
}

func TestParseHeaderListItemsOutsideSectionIgnored(t *testing.T) {
	content := `# - stray item before any section
# Title: T
package a.v1.b
`
	h, err := parseHeader("x.rego", []byte(content))
	if err != nil {
		t.Fatalf("parseHeader failed: %v", err)
	}
	if len(h.Metadata.RequiredMetrics) != 0 || len(h.Metadata.RequiredParams) != 0 {
		t.Error("stray list items must not attach to any section")
	}
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"no package", "# Title: X\n", "no package declaration"},
		{"duplicate package", "package a.v1.b\npackage a.v1.c\n", "duplicate package"},
		{"body before package", "default compliant := false\npackage a.v1.b\n", "before package"},
		{"malformed package", "package a..b\n", "malformed package"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseHeader("bad.rego", []byte(tt.content))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ParseError", err)
			}
			if !strings.Contains(pe.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want substring %q", pe.Message, tt.wantMsg)
			}
		})
	}
}
