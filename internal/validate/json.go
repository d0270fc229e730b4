package validate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// JSON validates the structure of a JSON document and returns the
// populated report. The whole document is read into memory and parsed
// once; there is no streaming parser, so the file must fit in memory.
//
// For an array of objects, the first element's key set becomes the
// expected schema: later non-object elements are errors, and elements
// whose key set drifts from the schema get warnings. A single object or
// scalar counts as one valid row with no per-key checks.
func JSON(path string, opts JSONOptions) *Report {
	report := NewReport(filepath.Base(path), opts.MaxErrors)
	report.FileType = "JSON"

	if info, err := os.Stat(path); err == nil {
		report.FileSize = info.Size()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		report.AddError(0, KindFileReadError, fmt.Sprintf("Error reading file: %v", err), "")
		report.finalize()
		return report
	}

	// The document is processed as a unit, so progress is nominal: once
	// before the parse, once at completion.
	if opts.Progress != nil {
		opts.Progress(50, 0, 0)
	}

	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		report.AddError(parseErrorLine(content, err), KindJSONParseError,
			fmt.Sprintf("Invalid JSON: %v", err), "")
		report.InvalidRows = 1
		report.finalize()
		return report
	}

	switch v := doc.(type) {
	case []any:
		report.TotalRows = len(v)
		report.ValidRows = len(v)
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				checkArraySchema(report, v, first, opts.Cancel)
			}
		}
	case map[string]any:
		report.TotalRows = 1
		report.ValidRows = 1
		report.ExpectedColumns = len(v)
	default:
		report.TotalRows = 1
		report.ValidRows = 1
	}

	if opts.Progress != nil && !report.Cancelled {
		opts.Progress(100, report.TotalRows, len(report.Errors))
	}

	report.finalize()
	return report
}

// checkArraySchema compares every element after the first against the
// first element's key set. Element indices are 1-based, so checks start
// at index 2. Cancellation is polled per element.
func checkArraySchema(report *Report, elements []any, first map[string]any, cancel *Flag) {
	expected := make(map[string]struct{}, len(first))
	for k := range first {
		expected[k] = struct{}{}
	}
	report.ExpectedColumns = len(expected)

	for i := 1; i < len(elements); i++ {
		if cancel.Raised() {
			report.Cancelled = true
			return
		}
		idx := i + 1

		obj, ok := elements[i].(map[string]any)
		if !ok {
			report.InvalidRows++
			report.ValidRows--
			report.AddError(idx, KindTypeMismatch,
				fmt.Sprintf("Expected object, got %s", jsonTypeName(elements[i])), "")
			continue
		}

		missing, extra := keyDiff(expected, obj)
		if len(missing) > 0 || len(extra) > 0 {
			var parts []string
			if len(missing) > 0 {
				parts = append(parts, "Missing keys: "+strings.Join(missing, ", "))
			}
			if len(extra) > 0 {
				parts = append(parts, "Extra keys: "+strings.Join(extra, ", "))
			}
			report.AddWarning(idx, KindKeyMismatch, strings.Join(parts, "; "), "")
		}
	}
}

// keyDiff returns the keys missing from and extra in obj relative to
// expected, each sorted for deterministic messages.
func keyDiff(expected map[string]struct{}, obj map[string]any) (missing, extra []string) {
	for k := range expected {
		if _, ok := obj[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range obj {
		if _, ok := expected[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

// parseErrorLine maps a syntax error's byte offset to a 1-based line.
func parseErrorLine(content []byte, err error) int {
	var syn *json.SyntaxError
	if errors.As(err, &syn) && syn.Offset > 0 && int(syn.Offset) <= len(content) {
		return 1 + bytes.Count(content[:syn.Offset], []byte("\n"))
	}
	return 1
}

// jsonTypeName names a decoded JSON value's type for error messages.
func jsonTypeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
