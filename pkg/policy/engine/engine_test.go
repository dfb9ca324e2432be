package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"themis-hq/themis/pkg/policy/catalog"
)

// fakeEngine writes an executable shell script standing in for the
// engine binary and returns its path.
func fakeEngine(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opa")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write fake engine: %v", err)
	}
	return path
}

func testModules(names ...string) []catalog.Module {
	modules := make([]catalog.Module, len(names))
	for i, name := range names {
		modules[i] = catalog.Module{
			PackageName: name,
			Path:        "/policies/" + strings.ReplaceAll(name, ".", "/") + ".rego",
		}
	}
	return modules
}

func TestEvaluateSuccess(t *testing.T) {
	binary := fakeEngine(t, `cat > /dev/null
echo '{"result":[{"expressions":[{"value":{"compliant":true}}]}]}'`)

	eng := NewOPAEngine(&Config{BinaryPath: binary, Timeout: 5 * time.Second, QuerySuffix: "report_output"}, nil)
	out, err := eng.Evaluate(context.Background(), testModules("global.v1.fairness"), map[string]any{"params": map[string]any{}})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !strings.Contains(string(out), `"compliant":true`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestEvaluateBuildsCompoundQuery(t *testing.T) {
	// The fake engine echoes its arguments so the test can inspect the
	// query and data flags the adapter constructed.
	binary := fakeEngine(t, `cat > /dev/null
echo "$@"`)

	eng := NewOPAEngine(&Config{BinaryPath: binary, Timeout: 5 * time.Second, QuerySuffix: "report_output"}, nil)
	out, err := eng.Evaluate(context.Background(), testModules("a.v1.x", "b.v1.y"), nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	args := string(out)
	for _, want := range []string{
		"eval", "--format json", "--stdin-input",
		"-d /policies/a/v1/x.rego",
		"-d /policies/b/v1/y.rego",
		"data.a.v1.x.report_output; data.b.v1.y.report_output",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("engine args missing %q: %s", want, args)
		}
	}
}

func TestEvaluatePassesInputOnStdin(t *testing.T) {
	binary := fakeEngine(t, `cat`)

	eng := NewOPAEngine(&Config{BinaryPath: binary, Timeout: 5 * time.Second, QuerySuffix: "report_output"}, nil)
	out, err := eng.Evaluate(context.Background(), testModules("a.v1.x"), map[string]any{
		"metrics": map[string]any{"toxic_fraction": 0.2},
		"params":  map[string]any{},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !strings.Contains(string(out), `"toxic_fraction":0.2`) {
		t.Errorf("input document not delivered on stdin: %s", out)
	}
}

func TestEvaluateNonZeroExit(t *testing.T) {
	binary := fakeEngine(t, `cat > /dev/null
echo "rego_parse_error: unexpected token" >&2
exit 2`)

	eng := NewOPAEngine(&Config{BinaryPath: binary, Timeout: 5 * time.Second, QuerySuffix: "report_output"}, nil)
	_, err := eng.Evaluate(context.Background(), testModules("a.v1.x"), nil)

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("err = %v, want EngineError", err)
	}
	if engineErr.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", engineErr.ExitCode)
	}
	if !strings.Contains(engineErr.Stderr, "rego_parse_error") {
		t.Errorf("Stderr = %q, want captured engine stderr", engineErr.Stderr)
	}
	if engineErr.Timeout {
		t.Error("Timeout = true for plain failure")
	}
}

func TestEvaluateTimeout(t *testing.T) {
	binary := fakeEngine(t, `cat > /dev/null
sleep 5`)

	eng := NewOPAEngine(&Config{BinaryPath: binary, Timeout: 100 * time.Millisecond, QuerySuffix: "report_output"}, nil)
	_, err := eng.Evaluate(context.Background(), testModules("a.v1.x"), nil)

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("err = %v, want EngineError", err)
	}
	if !engineErr.Timeout {
		t.Error("Timeout = false, want true")
	}
}

func TestEvaluateNoModules(t *testing.T) {
	eng := NewOPAEngine(nil, nil)
	if _, err := eng.Evaluate(context.Background(), nil, nil); err == nil {
		t.Error("expected error for empty module list")
	}
}

func TestBuildInputParamsAlwaysPresent(t *testing.T) {
	input, err := BuildInput(map[string]any{"metrics": map[string]any{}}, nil)
	if err != nil {
		t.Fatalf("BuildInput failed: %v", err)
	}
	params, ok := input["params"].(map[string]any)
	if !ok {
		t.Fatalf("params missing or wrong type: %T", input["params"])
	}
	if len(params) != 0 {
		t.Errorf("params = %v, want empty map", params)
	}
}

func TestBuildInputDoesNotMutateCaller(t *testing.T) {
	evalCtx := map[string]any{
		"metrics": map[string]any{"score": 1.0},
		"params":  map[string]any{"threshold": 0.5},
	}

	input, err := BuildInput(evalCtx, map[string]any{"threshold": 0.9, "mode": "strict"})
	if err != nil {
		t.Fatalf("BuildInput failed: %v", err)
	}

	// Mutating the output must not reach the caller's context.
	input["metrics"].(map[string]any)["score"] = 99.0

	if evalCtx["metrics"].(map[string]any)["score"] != 1.0 {
		t.Error("caller's evaluation context was mutated")
	}
	if evalCtx["params"].(map[string]any)["threshold"] != 0.5 {
		t.Error("caller's params were mutated")
	}

	merged := input["params"].(map[string]any)
	if merged["threshold"] != 0.9 {
		t.Errorf("threshold = %v, want override 0.9", merged["threshold"])
	}
	if merged["mode"] != "strict" {
		t.Errorf("mode = %v, want strict", merged["mode"])
	}
}

func TestBuildInputUnserializableContext(t *testing.T) {
	if _, err := BuildInput(map[string]any{"ch": make(chan int)}, nil); err == nil {
		t.Error("expected error for unserializable context")
	}
}
