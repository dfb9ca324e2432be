package engine

import (
	"fmt"
	"strings"
)

// EngineError reports a failed decision-engine invocation. It carries
// the engine's captured output channels so failures are diagnosable
// from the error alone.
type EngineError struct {
	// Packages lists the rule packages the invocation targeted.
	Packages []string

	// ExitCode is the engine process exit code, or -1 when the process
	// did not run or was killed.
	ExitCode int

	// Stdout is the engine's captured standard output.
	Stdout string

	// Stderr is the engine's captured standard error.
	Stderr string

	// Timeout reports whether the invocation was killed by its
	// deadline.
	Timeout bool

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	var b strings.Builder
	if e.Timeout {
		b.WriteString("engine invocation timed out")
	} else {
		b.WriteString("engine invocation failed")
	}
	if len(e.Packages) > 0 {
		fmt.Fprintf(&b, " for %s", strings.Join(e.Packages, ", "))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", strings.TrimSpace(e.Stderr))
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Cause
}
