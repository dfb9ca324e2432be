package catalog

import (
	"fmt"
	"strings"
)

// ParseError represents a malformed rule file encountered during
// discovery. Discovery logs and skips the file; it never aborts the scan.
type ParseError struct {
	// Path is the path to the file that failed to parse.
	Path string

	// Line is the line number where the error occurred (1-indexed),
	// or 0 when not applicable.
	Line int

	// Message describes the parse error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %q at line %d: %s", e.Path, e.Line, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("parse error in %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error in %q: %s", e.Path, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// DependencyError represents a failed dependency resolution: either an
// import that does not map to any cataloged package, or an import cycle.
// It aborts only the affected bundle's resolution.
type DependencyError struct {
	// Package is the package whose imports could not be resolved.
	Package string

	// Missing is the imported package name absent from the catalog
	// (empty for cycle errors).
	Missing string

	// Cycle contains the packages participating in an import cycle
	// (empty for unresolved-import errors).
	Cycle []string

	// Message describes the dependency error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
	}
	if e.Missing != "" {
		return fmt.Sprintf("package %q imports %q, which is not in the catalog", e.Package, e.Missing)
	}
	return fmt.Sprintf("dependency error for package %q: %s", e.Package, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *DependencyError) Unwrap() error {
	return e.Cause
}

// ResolveError represents a category request that matched no cataloged
// modules.
type ResolveError struct {
	// Category is the requested category (before alias expansion).
	Category string

	// Subcategory is the requested subcategory, if any.
	Subcategory string

	// Version is the requested version, if any.
	Version string

	// Message describes the resolution failure.
	Message string
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	target := e.Category
	if e.Subcategory != "" {
		target += "/" + e.Subcategory
	}
	if e.Version != "" {
		target += "@" + e.Version
	}
	return fmt.Sprintf("cannot resolve %q: %s", target, e.Message)
}
