package validate

// tokenizer.go provides the quote-aware scanning primitives used by
// delimiter detection and the per-line column checks.
//
// The quote grammar is deliberately ad hoc, not RFC 4180: both `"` and
// `'` open a span, a quote immediately preceded by a backslash is
// literal (single-character lookback only), and while a span is open
// only the exact opening quote character can close it — the other quote
// character is plain content inside it.

// CountOutsideQuotes returns the number of occurrences of delim in line
// that fall outside any quoted span.
func CountOutsideQuotes(line string, delim byte) int {
	count := 0
	inQuotes := false
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		if (c == '"' || c == '\'') && (i == 0 || line[i-1] != '\\') {
			switch {
			case !inQuotes:
				inQuotes = true
				quote = c
			case c == quote:
				inQuotes = false
				quote = 0
			}
			// The other quote character inside a span is literal.
		} else if c == delim && !inQuotes {
			count++
		}
	}

	return count
}

// SplitQuoted splits line at unquoted occurrences of delim and returns
// the ordered fields. A doubled occurrence of the active quote character
// folds into the field as one literal quote instead of closing the span.
func SplitQuoted(line string, delim byte) []string {
	fields := make([]string, 0, 8)
	var field []byte
	inQuotes := false
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case (c == '"' || c == '\'') && (i == 0 || line[i-1] != '\\'):
			switch {
			case !inQuotes:
				inQuotes = true
				quote = c
			case c == quote:
				if i+1 < len(line) && line[i+1] == quote {
					// Escaped quote: fold and skip the second one.
					field = append(field, c)
					i++
				} else {
					inQuotes = false
					quote = 0
				}
			default:
				field = append(field, c)
			}
		case c == delim && !inQuotes:
			fields = append(fields, string(field))
			field = field[:0]
		default:
			field = append(field, c)
		}
	}

	return append(fields, string(field))
}
