package validate

// stream.go provides the reader stack the scanners pull lines through:
//
//   - bomSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - sanitizingReader: substitutes invalid UTF-8 bytes with '?'
//   - countingReader: tracks bytes consumed for percent progress
//
// The order matters: the BOM must go first, sanitization next, and
// counting wraps everything. Memory stays O(buffer) regardless of file
// size.

import (
	"io"
	"unicode/utf8"
)

// newScanReader stacks the three readers over r in the required order.
func newScanReader(r io.Reader) *countingReader {
	return &countingReader{r: &sanitizingReader{r: &bomSkippingReader{r: r}}}
}

// countingReader wraps an io.Reader and tracks bytes read.
type countingReader struct {
	r         io.Reader
	bytesRead int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.bytesRead += int64(n)
	return n, err
}

// bomSkippingReader skips the UTF-8 BOM commonly added by Windows
// programs. Bytes read during the check that are not a BOM are replayed.
type bomSkippingReader struct {
	r       io.Reader
	checked bool
	rest    []byte
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		var buf [3]byte
		n, err := io.ReadFull(b.r, buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if !(n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF) {
			b.rest = buf[:n]
		}
	}

	if len(b.rest) > 0 {
		n := copy(p, b.rest)
		b.rest = b.rest[n:]
		return n, nil
	}

	return b.r.Read(p)
}

// sanitizingReader replaces invalid UTF-8 bytes with '?' on the fly,
// decoding the input permissively instead of aborting. '?' keeps the
// replacement single-byte so sanitization never expands the buffer.
type sanitizingReader struct {
	r io.Reader

	// Trailing bytes from the previous read that may open a multi-byte
	// sequence completed by the next read.
	pending []byte
}

func (s *sanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	off := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[off:])
	n += off
	if n == 0 {
		return 0, err
	}

	data := p[:n]
	if err != io.EOF {
		// Hold back a possibly-incomplete trailing sequence.
		if k := incompleteTrailing(data); k > 0 {
			s.pending = append(s.pending, data[n-k:]...)
			data = data[:n-k]
		}
	}

	return sanitizeInPlace(data), err
}

// sanitizeInPlace rewrites data, replacing each invalid byte with '?',
// and returns the resulting length.
func sanitizeInPlace(data []byte) int {
	if utf8.Valid(data) {
		return len(data)
	}

	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// incompleteTrailing returns how many bytes at the end of data form the
// start of an incomplete multi-byte UTF-8 sequence, or 0.
func incompleteTrailing(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			// Lead byte: incomplete if its sequence extends past the end.
			if expectedRuneLen(b) > i {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			// Not a continuation byte, so no sequence spans the boundary.
			return 0
		}
	}
	return 0
}

// expectedRuneLen returns the sequence length implied by lead byte b.
func expectedRuneLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0 // continuation byte
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
