package catalog

import (
	"time"
)

// ModuleState describes the implementation state of a rule module.
type ModuleState string

const (
	// StateActive marks a module whose rule logic is fully implemented.
	StateActive ModuleState = "active"

	// StatePlaceholder marks a module that intentionally reports
	// non-compliant because its real logic has not been authored yet.
	// Placeholder modules are included in bundles but tagged, so
	// downstream consumers can report "pending implementation"
	// distinctly from a genuine pass/fail.
	StatePlaceholder ModuleState = "placeholder"
)

// Param describes a parameter a rule module expects in its input,
// optionally with a default value.
type Param struct {
	// Name is the parameter name as referenced by the rule body.
	Name string

	// Default is the default value declared in the header, or nil
	// if the parameter has no default.
	Default any
}

// Metadata contains the documentation block parsed from a rule file header.
type Metadata struct {
	// Title is the human-readable module title.
	Title string

	// Description is the module description.
	Description string

	// References lists regulatory or documentation references.
	References []string

	// RequiredMetrics lists the dotted metric paths the rule expects
	// to find in its input document.
	RequiredMetrics []string

	// RequiredParams lists the parameters the rule expects, with
	// optional defaults.
	RequiredParams []Param
}

// Module is one cataloged compliance rule module. Identity is the
// PackageName, which is unique within a catalog.
type Module struct {
	// Path is the absolute path to the rule file.
	Path string

	// Category is the top-level category directory (e.g. "global").
	Category string

	// Subcategory is the optional subcategory path between the
	// category and the version directory. Empty when absent.
	Subcategory string

	// Version is the version directory name (e.g. "v1", "v2.1").
	Version string

	// Area is the optional area path between the version directory
	// and the rule file. Empty when absent.
	Area string

	// PackageName is the dotted Rego package name declared by the file
	// (e.g. "global.v1.fairness"). Unique within a catalog.
	PackageName string

	// Imports lists the dotted package names of the module's declared
	// data imports (the "data." prefix stripped).
	Imports []string

	// Metadata is the parsed header documentation block.
	Metadata Metadata

	// State is the module implementation state.
	State ModuleState

	// Digest is a content hash of the rule file, used for catalog
	// versioning and change detection.
	Digest string
}

// CategoryPath returns the category joined with the subcategory,
// identifying the version-selection group this module belongs to.
func (m *Module) CategoryPath() string {
	if m.Subcategory == "" {
		return m.Category
	}
	return m.Category + "/" + m.Subcategory
}

// Bundle is a deduplicated, dependency-closed set of modules for one
// evaluation request. Modules are ordered dependencies-first, ties broken
// by package name, so bundle order is deterministic.
type Bundle struct {
	// Modules contains each required module exactly once.
	Modules []Module
}

// PackageNames returns the package names of all bundle members in
// bundle order.
func (b *Bundle) PackageNames() []string {
	names := make([]string, 0, len(b.Modules))
	for _, m := range b.Modules {
		names = append(names, m.PackageName)
	}
	return names
}

// Placeholders returns the bundle members in placeholder state.
func (b *Bundle) Placeholders() []Module {
	var out []Module
	for _, m := range b.Modules {
		if m.State == StatePlaceholder {
			out = append(out, m)
		}
	}
	return out
}

// LoadReport contains the results of a catalog discovery pass.
type LoadReport struct {
	// FileCount is the number of rule files examined.
	FileCount int

	// ModuleCount is the number of modules successfully cataloged.
	ModuleCount int

	// Skipped lists the per-file errors for malformed modules that
	// were logged and skipped. Discovery never aborts on these.
	Skipped []error

	// LoadTime is the duration of the discovery pass.
	LoadTime time.Duration
}
