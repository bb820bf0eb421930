package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	recordMarker = "Record"
	terminator   = "%\n"
)

// Chunk is the verbatim text of one candidate record.
type Chunk struct {
	Text     string
	Line     int  // source line of the first line of Text, 1-based
	Complete bool // false when the chunk was cut off before its "%" line
}

// FirstLine returns the chunk's first line without the newline.
func (c Chunk) FirstLine() string {
	if i := strings.IndexByte(c.Text, '\n'); i >= 0 {
		return c.Text[:i]
	}
	return c.Text
}

// Scanner splits a line-oriented stream into record chunks. Lines outside a
// record are dropped. It holds at most one chunk plus one look-ahead line.
type Scanner struct {
	r    *bufio.Reader
	line int

	// a "Record" line that cut the previous chunk short
	pending     string
	pendingLine int
	hasPending  bool
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// Line returns the number of source lines consumed so far.
func (s *Scanner) Line() int {
	return s.line
}

// Next returns the next chunk, or io.EOF when no further record starts
// before the end of the stream.
//
// A chunk cut off by the end of the stream or by a new "Record" line is
// returned with Complete unset; the parser rejects it.
func (s *Scanner) Next() (Chunk, error) {
	var b strings.Builder
	inRecord := false
	start := 0

	if s.hasPending {
		b.WriteString(s.pending)
		start = s.pendingLine
		inRecord = true
		s.pending, s.hasPending = "", false
	}

	for {
		line, err := s.r.ReadString('\n')
		if len(line) > 0 {
			s.line++
			switch {
			case !inRecord:
				if strings.HasPrefix(line, recordMarker) {
					inRecord = true
					start = s.line
					b.WriteString(line)
				}
			case line == terminator:
				b.WriteString(line)
				return Chunk{Text: b.String(), Line: start, Complete: true}, nil
			case strings.HasPrefix(line, recordMarker):
				s.pending, s.pendingLine, s.hasPending = line, s.line, true
				return Chunk{Text: b.String(), Line: start}, nil
			default:
				b.WriteString(line)
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Chunk{}, fmt.Errorf("read source: %w", err)
			}
			if inRecord {
				return Chunk{Text: b.String(), Line: start}, nil
			}
			return Chunk{}, io.EOF
		}
	}
}
