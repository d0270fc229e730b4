package validate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Scanner buffer sizing. Lines beyond maxLineBytes surface as a read
// error rather than silently corrupting row accounting.
const (
	initialScanBuffer = 64 * 1024
	maxLineBytes      = 16 * 1024 * 1024
)

// progressInterval is the number of processed rows between progress
// callbacks.
const progressInterval = 1000

// Delimited validates a delimited text file (CSV, TSV, pipe, etc.) and
// returns the populated report. The pass is synchronous and single
// threaded: it samples the head of the file, infers the delimiter unless
// one is pinned, then streams every physical line checking column counts
// and quote balance. All faults land in the report; the call itself
// never fails.
func Delimited(path string, opts DelimitedOptions) *Report {
	report := NewReport(filepath.Base(path), opts.MaxErrors)

	if info, err := os.Stat(path); err == nil {
		report.FileSize = info.Size()
	}

	// SAMPLING: buffer the head of the file for detection.
	sample, err := readSample(path, SampleLines)
	if err != nil {
		report.AddError(0, KindFileReadError, fmt.Sprintf("Error reading file: %v", err), "")
		report.finalize()
		return report
	}
	if len(sample) == 0 {
		report.AddError(0, KindEmptyFile, "File is empty", "")
		report.finalize()
		return report
	}

	// DETECTING: skipped when the caller pinned a delimiter.
	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(sample)
	}
	report.Delimiter = printableDelimiter(delim)
	report.FileType = fmt.Sprintf("Delimited (delimiter: %s)", report.Delimiter)

	// The first sampled line is the header and defines the expected
	// column count for every subsequent line. A malformed header
	// propagates its error pattern to the whole file; that is the
	// documented baseline policy, not a defect.
	expected := CountOutsideQuotes(strings.TrimSpace(sample[0]), delim) + 1
	report.ExpectedColumns = expected

	// SCANNING: re-open from the start and stream physical lines.
	f, err := os.Open(path)
	if err != nil {
		report.AddError(0, KindFileReadError, fmt.Sprintf("Error reading file: %v", err), "")
		report.finalize()
		return report
	}
	defer f.Close()

	counting := newScanReader(f)
	scanner := bufio.NewScanner(counting)
	scanner.Buffer(make([]byte, initialScanBuffer), maxLineBytes)

	var dups *DuplicateDetector
	if opts.CheckDuplicates {
		dups = NewDuplicateDetector()
	}

	row := 0
	for scanner.Scan() {
		if opts.Cancel.Raised() {
			report.Cancelled = true
			break
		}
		row++

		// Blank lines consume a line number but are skipped from totals.
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		report.TotalRows++

		if dups != nil {
			dups.Add(row, line)
		}

		actual := CountOutsideQuotes(line, delim) + 1
		if actual != expected {
			report.InvalidRows++
			report.AddError(row, KindColumnCountMismatch,
				fmt.Sprintf("Expected %d columns, found %d", expected, actual), line)
		} else {
			// Unescaped quote balance. An odd double-quote count is an
			// error; an odd single-quote count only warns.
			doubleBalance := strings.Count(line, `"`) - strings.Count(line, `\"`)
			singleBalance := strings.Count(line, `'`) - strings.Count(line, `\'`)
			switch {
			case doubleBalance%2 != 0:
				report.InvalidRows++
				report.AddError(row, KindUnclosedQuotes, "Unclosed double quotes detected", line)
			case singleBalance%2 != 0:
				report.AddWarning(row, KindUnclosedQuotes, "Unclosed single quotes detected", line)
			default:
				report.ValidRows++
			}
		}

		if opts.Progress != nil && report.TotalRows%progressInterval == 0 {
			percent := 0.0
			if report.FileSize > 0 {
				percent = float64(counting.bytesRead) / float64(report.FileSize) * 100
			}
			opts.Progress(percent, report.TotalRows, len(report.Errors))
		}
	}

	if err := scanner.Err(); err != nil && !report.Cancelled {
		report.AddError(0, KindFileReadError, fmt.Sprintf("Error reading file: %v", err), "")
	}

	// Duplicate groups are emitted only for a completed scan; a
	// cancelled pass keeps what the row checks already found.
	if dups != nil && !report.Cancelled {
		emitDuplicates(report, dups)
	}

	report.finalize()
	return report
}

// emitDuplicates writes one record per member of each confirmed group,
// naming the sibling rows, under the shared duplicate cap.
func emitDuplicates(report *Report, dups *DuplicateDetector) {
	for _, g := range dups.Groups() {
		for i, row := range g.Rows {
			report.AddDuplicate(row,
				fmt.Sprintf("exact duplicate of row(s): %s", joinSiblings(g.Rows, i)),
				g.Content)
		}
	}
}

// joinSiblings renders every row number in rows except the one at skip.
func joinSiblings(rows []int, skip int) string {
	parts := make([]string, 0, len(rows)-1)
	for i, r := range rows {
		if i == skip {
			continue
		}
		parts = append(parts, strconv.Itoa(r))
	}
	return strings.Join(parts, ", ")
}

// readSample reads up to max initial lines through the sanitizing stack,
// fewer if the file is shorter.
func readSample(path string, max int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(newScanReader(f))
	scanner.Buffer(make([]byte, initialScanBuffer), maxLineBytes)

	var lines []string
	for len(lines) < max && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// printableDelimiter renders a delimiter for display, escaping tab.
func printableDelimiter(d byte) string {
	if d == '\t' {
		return `\t`
	}
	return string(d)
}
