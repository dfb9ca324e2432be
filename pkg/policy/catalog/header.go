package catalog

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// header is the parsed header of a rule file: the package declaration,
// the declared data imports and the leading metadata comment block.
// The rule body is never parsed or executed here.
type header struct {
	PackageName string
	Imports     []string
	Metadata    Metadata
	State       ModuleState
}

var (
	packageLine = regexp.MustCompile(`^package\s+([A-Za-z_][\w]*(?:\.[A-Za-z_][\w]*)*)\s*$`)
	importLine  = regexp.MustCompile(`^import\s+(\S+)(?:\s+as\s+\S+)?\s*$`)
	paramLine   = regexp.MustCompile(`^([\w.]+)(?:\s*\(default:\s*(.+?)\s*\))?$`)
)

// parseHeader parses the header of a rule file. path is used only for
// error reporting. A missing or duplicate package declaration is a
// *ParseError; unknown metadata keys are ignored.
func parseHeader(path string, content []byte) (*header, error) {
	h := &header{State: StateActive}

	var listTarget string // active metadata list section, if any

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, "#"):
			parseMetadataLine(h, strings.TrimSpace(strings.TrimPrefix(line, "#")), &listTarget)

		case strings.HasPrefix(line, "package"):
			m := packageLine.FindStringSubmatch(line)
			if m == nil {
				return nil, &ParseError{Path: path, Line: lineNo, Message: "malformed package declaration"}
			}
			if h.PackageName != "" {
				return nil, &ParseError{Path: path, Line: lineNo, Message: "duplicate package declaration"}
			}
			h.PackageName = m[1]
			listTarget = ""

		case strings.HasPrefix(line, "import"):
			m := importLine.FindStringSubmatch(line)
			if m == nil {
				return nil, &ParseError{Path: path, Line: lineNo, Message: "malformed import declaration"}
			}
			// Only data imports are module dependencies; keyword and
			// builtin imports (future.*, rego.*) are not.
			if name, ok := strings.CutPrefix(m[1], "data."); ok {
				h.Imports = append(h.Imports, name)
			}

		default:
			// First body line: the header is complete.
			if h.PackageName == "" {
				return nil, &ParseError{Path: path, Line: lineNo, Message: "rule body before package declaration"}
			}
			return h, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Message: "failed to scan file", Cause: err}
	}
	if h.PackageName == "" {
		return nil, &ParseError{Path: path, Message: "no package declaration found"}
	}
	return h, nil
}

// parseMetadataLine interprets one comment line of the metadata block.
// listTarget carries the active list section ("metrics" or "params")
// across lines.
func parseMetadataLine(h *header, text string, listTarget *string) {
	// List item under an active section.
	if item, ok := strings.CutPrefix(text, "- "); ok && *listTarget != "" {
		item = strings.TrimSpace(item)
		switch *listTarget {
		case "metrics":
			h.Metadata.RequiredMetrics = append(h.Metadata.RequiredMetrics, item)
		case "params":
			if m := paramLine.FindStringSubmatch(item); m != nil {
				h.Metadata.RequiredParams = append(h.Metadata.RequiredParams, Param{
					Name:    m[1],
					Default: parseDefaultValue(m[2]),
				})
			}
		case "references":
			h.Metadata.References = append(h.Metadata.References, item)
		}
		return
	}

	key, value, found := strings.Cut(text, ":")
	if !found {
		return
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "Title":
		h.Metadata.Title = value
		*listTarget = ""
	case "Description":
		h.Metadata.Description = value
		*listTarget = ""
	case "Status":
		if strings.EqualFold(value, string(StatePlaceholder)) {
			h.State = StatePlaceholder
		}
		*listTarget = ""
	case "References":
		if value != "" {
			for _, ref := range strings.Split(value, ",") {
				h.Metadata.References = append(h.Metadata.References, strings.TrimSpace(ref))
			}
		}
		*listTarget = "references"
	case "RequiredMetrics":
		*listTarget = "metrics"
	case "RequiredParams":
		*listTarget = "params"
	default:
		*listTarget = ""
	}
}

// parseDefaultValue converts a header default into a typed value:
// numbers and the literal booleans are recognized, everything else is a
// string with surrounding quotes stripped. Empty input means no
// default. Numbers are checked first so "0" and "1" stay numeric.
func parseDefaultValue(raw string) any {
	if raw == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return strings.Trim(raw, `"'`)
}
