// Package engine invokes the external decision engine against rule
// modules. The adapter shells out to the engine binary, feeding it the
// input document on standard input and parsing nothing itself: raw
// output goes to the result normalizer, and every failure mode (bad
// exit, timeout, unserializable input) surfaces as a structured
// EngineError.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"themis-hq/themis/pkg/policy/catalog"
	"themis-hq/themis/pkg/telemetry/metrics"
)

// Engine invokes the decision engine against one or more rule modules.
// Implementations must be safe for concurrent use.
type Engine interface {
	// Evaluate runs the engine over the given modules with the input
	// document and returns the raw engine output. The output carries
	// one expression value per module, in module order.
	Evaluate(ctx context.Context, modules []catalog.Module, input map[string]any) ([]byte, error)
}

// Config contains configuration for the engine adapter.
type Config struct {
	// BinaryPath is the engine executable (default: "opa", resolved
	// via PATH).
	BinaryPath string `yaml:"binary_path"`

	// Timeout bounds a single engine invocation (default: 30s).
	Timeout time.Duration `yaml:"timeout"`

	// QuerySuffix is the rule name queried inside each package
	// (default: "report_output").
	QuerySuffix string `yaml:"query_suffix"`
}

// DefaultConfig returns the default engine adapter configuration.
func DefaultConfig() *Config {
	return &Config{
		BinaryPath:  "opa",
		Timeout:     30 * time.Second,
		QuerySuffix: "report_output",
	}
}

// OPAEngine runs rule modules through the opa binary.
type OPAEngine struct {
	config *Config
	logger *slog.Logger
}

// NewOPAEngine creates an engine adapter with the given configuration.
func NewOPAEngine(config *Config, logger *slog.Logger) *OPAEngine {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OPAEngine{config: config, logger: logger}
}

// Evaluate runs the engine once over all given modules, querying
// data.<package>.<suffix> for each. Module rule files are passed to the
// engine by path; the input document travels over standard input so it
// never touches the filesystem.
func (e *OPAEngine) Evaluate(ctx context.Context, modules []catalog.Module, input map[string]any) ([]byte, error) {
	if len(modules) == 0 {
		return nil, &EngineError{ExitCode: -1, Message: "no modules to evaluate"}
	}

	packages := make([]string, len(modules))
	terms := make([]string, len(modules))
	for i, m := range modules {
		packages[i] = m.PackageName
		terms[i] = fmt.Sprintf("data.%s.%s", m.PackageName, e.config.QuerySuffix)
	}
	query := strings.Join(terms, "; ")

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, &EngineError{
			Packages: packages,
			ExitCode: -1,
			Message:  "input document is not serializable",
			Cause:    err,
		}
	}

	args := []string{"eval", "--format", "json", "--stdin-input"}
	for _, m := range modules {
		args = append(args, "-d", m.Path)
	}
	args = append(args, query)

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.config.BinaryPath, args...)
	cmd.Stdin = bytes.NewReader(inputJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		metrics.RecordEngineInvocation("timeout", elapsed.Seconds())
		e.logger.Error("engine invocation timed out",
			"packages", packages,
			"timeout", e.config.Timeout,
		)
		return nil, &EngineError{
			Packages: packages,
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Timeout:  true,
			Message:  fmt.Sprintf("exceeded %s", e.config.Timeout),
		}
	}

	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		metrics.RecordEngineInvocation("error", elapsed.Seconds())
		e.logger.Error("engine invocation failed",
			"packages", packages,
			"exit_code", exitCode,
			"stderr", strings.TrimSpace(stderr.String()),
		)
		return nil, &EngineError{
			Packages: packages,
			ExitCode: exitCode,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Message:  "engine exited with an error",
			Cause:    runErr,
		}
	}

	metrics.RecordEngineInvocation("success", elapsed.Seconds())
	e.logger.Debug("engine invocation completed",
		"packages", packages,
		"duration", elapsed,
		"output_bytes", stdout.Len(),
	)

	return stdout.Bytes(), nil
}
