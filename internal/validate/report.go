package validate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// contentPreviewLen caps stored line content on each record.
const contentPreviewLen = 500

// csvPreviewLen caps line content in the CSV error export.
const csvPreviewLen = 200

// Rendering limits for the grouped text report.
const (
	renderPerGroup   = 10
	renderDuplicates = 20
)

// Report is the aggregate result of one validation pass. It is mutated
// exclusively by the validator that owns it during the run and belongs
// to the caller afterwards.
type Report struct {
	FileName  string    `json:"fileName"`
	FileSize  int64     `json:"fileSize"`
	FileType  string    `json:"fileType"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	TotalRows   int `json:"totalRows"`
	ValidRows   int `json:"validRows"`
	InvalidRows int `json:"invalidRows"`

	// Delimiter is the detected (or pinned) separator, printable form
	// ("\t" for tab). Empty for JSON passes.
	Delimiter       string `json:"delimiter,omitempty"`
	ExpectedColumns int    `json:"expectedColumns"`

	Errors     []Record          `json:"errors"`
	Warnings   []Record          `json:"warnings"`
	Duplicates []DuplicateRecord `json:"duplicates"`

	Passed    bool `json:"passed"`
	Cancelled bool `json:"cancelled"`

	maxErrors int
}

// NewReport creates an empty report for the named file. maxErrors bounds
// each record list; zero or negative means DefaultMaxErrors.
func NewReport(fileName string, maxErrors int) *Report {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &Report{
		FileName:  fileName,
		StartTime: time.Now(),
		maxErrors: maxErrors,
	}
}

// MaxErrors returns the per-list record cap.
func (r *Report) MaxErrors() int { return r.maxErrors }

// AddError appends an error record, truncating content to a 500-char
// preview. Appends beyond the cap are dropped.
func (r *Report) AddError(row int, kind ErrorKind, description, content string) {
	if len(r.Errors) >= r.maxErrors {
		return
	}
	r.Errors = append(r.Errors, Record{
		Row:         row,
		Kind:        kind,
		Description: description,
		Content:     truncate(content, contentPreviewLen),
	})
}

// AddWarning appends a warning record under the same cap and truncation
// rules as AddError.
func (r *Report) AddWarning(row int, kind ErrorKind, description, content string) {
	if len(r.Warnings) >= r.maxErrors {
		return
	}
	r.Warnings = append(r.Warnings, Record{
		Row:         row,
		Kind:        kind,
		Description: description,
		Content:     truncate(content, contentPreviewLen),
	})
}

// AddDuplicate appends a duplicate-row record. The cap applies to the
// total across all duplicate groups.
func (r *Report) AddDuplicate(row int, description, content string) {
	if len(r.Duplicates) >= r.maxErrors {
		return
	}
	r.Duplicates = append(r.Duplicates, DuplicateRecord{
		Row:         row,
		Description: description,
		Content:     truncate(content, contentPreviewLen),
	})
}

// finalize stamps the end time and computes Passed. Warnings and
// duplicates never affect the outcome, and neither does cancellation:
// a cancelled-but-clean partial scan reads as passed for the portion
// scanned. Callers must consult Cancelled separately.
func (r *Report) finalize() {
	r.EndTime = time.Now()
	r.Passed = r.InvalidRows == 0 && len(r.Errors) == 0
}

// Duration returns the wall-clock time of the pass.
func (r *Report) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// Render produces the grouped, human-readable text report.
func (r *Report) Render() string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	fmt.Fprintf(&b, "%s\nDATA FILE VALIDATION REPORT\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "File: %s\n", r.FileName)
	fmt.Fprintf(&b, "File Size: %.2f MB\n", float64(r.FileSize)/(1024*1024))
	fmt.Fprintf(&b, "File Type: %s\n", r.FileType)
	fmt.Fprintf(&b, "Validation Time: %.2f seconds\n", r.Duration().Seconds())
	if !r.EndTime.IsZero() {
		fmt.Fprintf(&b, "Timestamp: %s\n", r.EndTime.Format("2006-01-02 15:04:05"))
	}

	b.WriteString("\n" + thin + "\n")
	switch {
	case r.Cancelled:
		b.WriteString("VALIDATION CANCELLED - PARTIAL RESULTS\n")
	case r.Passed:
		b.WriteString("VALIDATION RESULT: PASSED\n")
	default:
		b.WriteString("VALIDATION RESULT: FAILED\n")
	}
	b.WriteString(thin + "\n")

	fmt.Fprintf(&b, "\nTotal Rows Processed: %d\n", r.TotalRows)
	fmt.Fprintf(&b, "Valid Rows: %d\n", r.ValidRows)
	fmt.Fprintf(&b, "Invalid Rows: %d\n", r.InvalidRows)
	if r.Delimiter != "" {
		fmt.Fprintf(&b, "Delimiter: '%s' (detected)\n", r.Delimiter)
	}
	if r.ExpectedColumns > 0 {
		fmt.Fprintf(&b, "Expected Columns: %d\n", r.ExpectedColumns)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\n%s\nERRORS (%d found)\n%s\n", rule, len(r.Errors), rule)
		renderGroups(&b, r.Errors, "errors")
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "\n%s\nWARNINGS (%d found)\n%s\n", rule, len(r.Warnings), rule)
		renderGroups(&b, r.Warnings, "warnings")
	}

	if len(r.Duplicates) > 0 {
		fmt.Fprintf(&b, "\n%s\nDUPLICATE ROWS (%d found)\n%s\n", rule, len(r.Duplicates), rule)
		shown := r.Duplicates
		if len(shown) > renderDuplicates {
			shown = shown[:renderDuplicates]
		}
		for _, d := range shown {
			fmt.Fprintf(&b, "  Row %d: %s\n", d.Row, d.Description)
		}
		if extra := len(r.Duplicates) - renderDuplicates; extra > 0 {
			fmt.Fprintf(&b, "  ... and %d more duplicate rows\n", extra)
		}
	}

	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		b.WriteString("\nNo errors or warnings found. File is valid!\n")
	}

	fmt.Fprintf(&b, "\n%s\nEND OF REPORT\n%s", rule, rule)
	return b.String()
}

// renderGroups writes records grouped by kind, each group capped at the
// first 10 occurrences plus a summary line. Kinds keep first-appearance
// order.
func renderGroups(b *strings.Builder, records []Record, noun string) {
	var kinds []ErrorKind
	grouped := make(map[ErrorKind][]Record)
	for _, rec := range records {
		if _, ok := grouped[rec.Kind]; !ok {
			kinds = append(kinds, rec.Kind)
		}
		grouped[rec.Kind] = append(grouped[rec.Kind], rec)
	}

	thin := strings.Repeat("-", 80)
	for _, kind := range kinds {
		group := grouped[kind]
		fmt.Fprintf(b, "\n%s (%d occurrences):\n%s\n", kind, len(group), thin)
		shown := group
		if len(shown) > renderPerGroup {
			shown = shown[:renderPerGroup]
		}
		for _, rec := range shown {
			fmt.Fprintf(b, "  Row %d: %s\n", rec.Row, rec.Description)
		}
		if extra := len(group) - renderPerGroup; extra > 0 {
			fmt.Fprintf(b, "  ... and %d more similar %s\n", extra, noun)
		}
	}
}

// WriteErrorsCSV exports the error list as flat CSV for analysis in a
// spreadsheet, with content previews shortened to 200 chars.
func (r *Report) WriteErrorsCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Row Number", "Error Type", "Description", "Row Content Preview"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range r.Errors {
		row := []string{
			strconv.Itoa(rec.Row),
			string(rec.Kind),
			rec.Description,
			truncate(rec.Content, csvPreviewLen),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// truncate shortens s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
