package validate

// ErrorKind classifies a validation finding.
type ErrorKind string

const (
	KindEmptyFile           ErrorKind = "EMPTY_FILE"
	KindFileReadError       ErrorKind = "FILE_READ_ERROR"
	KindColumnCountMismatch ErrorKind = "COLUMN_COUNT_MISMATCH"
	KindUnclosedQuotes      ErrorKind = "UNCLOSED_QUOTES"
	KindJSONParseError      ErrorKind = "JSON_PARSE_ERROR"
	KindTypeMismatch        ErrorKind = "TYPE_MISMATCH"
	KindKeyMismatch         ErrorKind = "KEY_MISMATCH"
	KindDuplicateRow        ErrorKind = "DUPLICATE_ROW"
)

// Record is a single error or warning finding. Row is the 1-based
// physical line number in the source file (or element index for JSON);
// row 0 marks file-level findings.
type Record struct {
	Row         int       `json:"row"`
	Kind        ErrorKind `json:"kind"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
}

// DuplicateRecord reports one member of a duplicate-row group. The
// description names the sibling row numbers.
type DuplicateRecord struct {
	Row         int    `json:"row"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
}

// ProgressFunc is invoked periodically during a validation pass with the
// percent of the file consumed (0-100), rows processed so far, and the
// current error count. It must return quickly and must not block.
type ProgressFunc func(percent float64, rows, errors int)

// DefaultMaxErrors bounds each record list on pathological files.
const DefaultMaxErrors = 1000

// DelimitedOptions configures a delimited-file validation pass.
type DelimitedOptions struct {
	// Delimiter pins the field separator, skipping detection. Zero means
	// auto-detect from the sample.
	Delimiter byte

	// MaxErrors caps each of the error, warning, and duplicate lists.
	// Zero means DefaultMaxErrors.
	MaxErrors int

	// CheckDuplicates enables exact-duplicate-row detection.
	CheckDuplicates bool

	Cancel   *Flag
	Progress ProgressFunc
}

// JSONOptions configures a JSON validation pass.
type JSONOptions struct {
	// MaxErrors caps each record list. Zero means DefaultMaxErrors.
	MaxErrors int

	Cancel   *Flag
	Progress ProgressFunc
}
