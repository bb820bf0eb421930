package parse

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a grammar violation. It is also usable as a sentinel:
// errors.Is(err, parse.ErrValue).
type ErrorKind int

const (
	ErrHeader   ErrorKind = iota + 1 // Record: <id> line
	ErrField                         // field loop: expected field id or %
	ErrValue                         // inside one field
	ErrTrailing                      // content after %
)

// Context names the grammar section the kind belongs to.
func (k ErrorKind) Context() string {
	switch k {
	case ErrHeader:
		return "header"
	case ErrField, ErrTrailing:
		return "fields"
	case ErrValue:
		return "field"
	default:
		return "unknown"
	}
}

func (k ErrorKind) Error() string {
	return k.Context() + " error"
}

const (
	msgRecordStart = `Expected string: "Record:"`
	msgRecordID    = "Expected a record id (a number)"
	msgHeaderLine  = "Expected a new line"
	msgFieldID     = `Expected field id (eg. "P12:") or "%"`
	msgFieldValue  = "Expected field value (number or quoted string)"
	msgFieldLine   = "Expected new line"
	msgTrailing    = "Unexpected content after RecordEnd"
)

// ParseError describes why a chunk was rejected.
type ParseError struct {
	Kind    ErrorKind
	Head    string // first line of the chunk, without the newline
	Message string
	Found   string // offending token, lexical error or "end of record"
	Line    int    // 1-based line inside the chunk
}

func (e *ParseError) Context() string {
	return e.Kind.Context()
}

// Error renders the message written to the error sink. It ends with a newline
// so consecutive errors can be concatenated as they are.
func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error when parsing \"%s...\":\n%s: %s", e.Head, e.Context(), e.Message)
	if e.Found != "" {
		fmt.Fprintf(&b, " (found %s, line %d)", e.Found, e.Line)
	}
	b.WriteByte('\n')
	return b.String()
}

func (e *ParseError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func firstLine(chunk string) string {
	if i := strings.IndexByte(chunk, '\n'); i >= 0 {
		return chunk[:i]
	}
	return chunk
}
