package result

import "fmt"

// SchemaError reports decision-engine output that does not match the
// expected shape. Path locates the offending node, either as a JSON
// path inside the engine envelope or as the rule package whose report
// was malformed.
type SchemaError struct {
	// Path locates the malformed node.
	Path string

	// Message describes the schema violation.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema error at %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("schema error at %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}
