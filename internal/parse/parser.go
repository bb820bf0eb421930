package parse

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse parses one chunk into a Record. Any grammar violation aborts the whole
// chunk; the returned error is then a *ParseError.
func Parse(chunk string) (*Record, error) {
	rec, perr := parseRecord(chunk)
	if perr != nil {
		return nil, perr
	}
	return rec, nil
}

// ParseChunk parses chunk text that starts at the given source line.
func ParseChunk(text string, line int) Result {
	rec, perr := parseRecord(text)
	return Result{Line: line, Record: rec, Err: perr}
}

// Unterminated rejects a chunk that the scanner cut off before its "%" line,
// by end of input or by the next "Record:" header.
func Unterminated(text string, line int) Result {
	return Result{Line: line, Err: &ParseError{
		Kind:    ErrField,
		Head:    firstLine(text),
		Message: msgFieldID,
		Found:   "end of record",
		Line:    strings.Count(text, "\n") + 1,
	}}
}

// parser is an LL(1) recursive descent parser over the token stream of one
// chunk. cur holds the single lookahead token.
type parser struct {
	lex    *Lexer
	head   string
	cur    Token
	eof    bool
	lexErr *LexError
}

func parseRecord(chunk string) (*Record, *ParseError) {
	p := &parser{lex: NewLexer(chunk), head: firstLine(chunk)}

	p.advance()
	if !p.at(TokenRecordStart) {
		return nil, p.fail(ErrHeader, msgRecordStart)
	}
	p.advance()
	if !p.at(TokenNumber) {
		return nil, p.fail(ErrHeader, msgRecordID)
	}
	id := p.cur.Num
	p.advance()
	if !p.at(TokenNewLine) {
		return nil, p.fail(ErrHeader, msgHeaderLine)
	}

	fields, perr := p.parseFields()
	if perr != nil {
		return nil, perr
	}
	return &Record{ID: id, Fields: fields}, nil
}

// parseFields consumes field* RecordEnd NewLine and requires nothing to follow.
func (p *parser) parseFields() ([]Field, *ParseError) {
	var fields []Field
	for {
		p.advance()
		if p.at(TokenRecordEnd) {
			break
		}
		if !p.at(TokenFieldID) {
			return nil, p.fail(ErrField, msgFieldID)
		}
		f, perr := p.parseField()
		if perr != nil {
			return nil, perr
		}
		fields = append(fields, f)
	}

	// The terminator line is exactly "%\n" and ends the chunk. The lexer
	// skips blanks, so trailing ones are checked on the raw remainder.
	rest := p.lex.Remainder()
	if rest == "\n" {
		return fields, nil
	}
	if ws, ok := blankLine(rest); ok {
		return nil, p.failBlank(ws, p.cur.Line)
	}
	p.advance()
	if !p.at(TokenNewLine) {
		return nil, p.fail(ErrTrailing, msgTrailing)
	}
	if ws, ok := blankLine(p.lex.Remainder()); ok {
		return nil, p.failBlank(ws, p.cur.Line+1)
	}
	p.advance()
	return nil, p.fail(ErrTrailing, msgTrailing)
}

// blankLine reports the run of spaces and tabs at the start of s when nothing
// but a newline or the end of input follows it.
func blankLine(s string) (string, bool) {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	if n == 0 || (n < len(s) && s[n] != '\n') {
		return "", false
	}
	return s[:n], true
}

func (p *parser) failBlank(ws string, line int) *ParseError {
	return &ParseError{
		Kind:    ErrTrailing,
		Head:    p.head,
		Message: msgTrailing,
		Found:   fmt.Sprintf("whitespace %q", ws),
		Line:    line,
	}
}

// parseField parses value NewLine; the field id is the current token.
func (p *parser) parseField() (Field, *ParseError) {
	f := Field{ID: p.cur.Num}

	p.advance()
	switch {
	case p.at(TokenNumber):
		f.Value = NumValue(p.cur.Num)
	case p.at(TokenString):
		f.Value = StrValue(p.cur.Text)
	default:
		return Field{}, p.fail(ErrValue, msgFieldValue)
	}

	p.advance()
	if !p.at(TokenNewLine) {
		return Field{}, p.fail(ErrValue, msgFieldLine)
	}
	return f, nil
}

func (p *parser) advance() {
	if p.eof || p.lexErr != nil {
		return
	}
	tok, err := p.lex.Next()
	var lexErr *LexError
	switch {
	case err == nil:
		p.cur = tok
	case errors.Is(err, io.EOF):
		p.eof = true
	case errors.As(err, &lexErr):
		p.lexErr = lexErr
	}
}

func (p *parser) at(kind TokenKind) bool {
	return !p.eof && p.lexErr == nil && p.cur.Kind == kind
}

func (p *parser) fail(kind ErrorKind, msg string) *ParseError {
	e := &ParseError{Kind: kind, Head: p.head, Message: msg}
	switch {
	case p.lexErr != nil:
		e.Found = p.lexErr.Reason + ` "` + p.lexErr.Text + `"`
		e.Line = p.lexErr.Line
	case p.eof:
		e.Found = "end of record"
		e.Line = p.lex.line
	default:
		e.Found = p.cur.describe()
		e.Line = p.cur.Line
	}
	return e
}
