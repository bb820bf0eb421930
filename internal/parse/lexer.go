package parse

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

type TokenKind int

const (
	TokenRecordStart TokenKind = iota // Record:
	TokenRecordEnd                    // %
	TokenFieldID                      // P12:
	TokenNumber                       // -42
	TokenString                       // "text"
	TokenNewLine                      // \n
)

func (k TokenKind) String() string {
	switch k {
	case TokenRecordStart:
		return "RecordStart"
	case TokenRecordEnd:
		return "RecordEnd"
	case TokenFieldID:
		return "FieldId"
	case TokenNumber:
		return "Number"
	case TokenString:
		return "String"
	case TokenNewLine:
		return "NewLine"
	default:
		return "Unknown"
	}
}

// Token is one lexical unit. Num is set for FieldID and Number. Text holds the
// string contents, or the source spelling of a field id ("P02:").
type Token struct {
	Kind   TokenKind
	Num    int32
	Text   string
	Pos    int // byte offset in the chunk
	Line   int // 1-based
	Column int // 1-based
}

func (t Token) String() string {
	switch t.Kind {
	case TokenFieldID:
		return fmt.Sprintf("FieldId(%d)", t.Num)
	case TokenNumber:
		return fmt.Sprintf("Number(%d)", t.Num)
	case TokenString:
		return fmt.Sprintf("String(%q)", t.Text)
	default:
		return t.Kind.String()
	}
}

// describe renders the token the way it appeared in the source, for error messages.
func (t Token) describe() string {
	switch t.Kind {
	case TokenRecordStart:
		return `"Record:"`
	case TokenRecordEnd:
		return `"%"`
	case TokenFieldID:
		return fmt.Sprintf(`field id "%s"`, t.Text)
	case TokenNumber:
		return fmt.Sprintf("number %d", t.Num)
	case TokenString:
		return fmt.Sprintf(`string "%s"`, t.Text)
	case TokenNewLine:
		return "new line"
	default:
		return t.Kind.String()
	}
}

// LexError reports text that matches no token pattern.
type LexError struct {
	Pos    int
	Line   int
	Column int
	Text   string
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s %q at line %d, column %d", e.Reason, e.Text, e.Line, e.Column)
}

const recordStartLit = "Record:"

// Lexer splits one chunk into tokens. It is single-pass and not resumable
// after an error.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
	err    error
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, column: 1}
}

// Next returns the next token, io.EOF at the end of input, or a *LexError.
// Once an error is returned every later call returns it again.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	tok, err := l.scan()
	if err != nil {
		l.err = err
	}
	return tok, err
}

// All yields tokens until the input is exhausted or the first error, which is
// yielded once.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := l.Next()
			if err == io.EOF {
				return
			}
			if !yield(tok, err) || err != nil {
				return
			}
		}
	}
}

// Remainder returns the input not consumed yet.
func (l *Lexer) Remainder() string {
	return l.input[l.pos:]
}

// Tokenize lexes a whole chunk.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	for tok, err := range NewLexer(input).All() {
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func (l *Lexer) scan() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{}, io.EOF
	}

	start := Token{Pos: l.pos, Line: l.line, Column: l.column}
	rest := l.input[l.pos:]
	ch := rest[0]

	switch {
	case strings.HasPrefix(rest, recordStartLit):
		l.advance(len(recordStartLit))
		start.Kind = TokenRecordStart
		return start, nil

	case ch == '%':
		l.advance(1)
		start.Kind = TokenRecordEnd
		return start, nil

	case ch == '\n':
		l.advance(1)
		start.Kind = TokenNewLine
		return start, nil

	// the P prefix is checked before numbers so "P01:" never lexes as anything else
	case ch == 'P':
		digits := countDigits(rest[1:])
		if digits == 0 || len(rest) <= 1+digits || rest[1+digits] != ':' {
			return Token{}, l.errorAt("invalid field id")
		}
		n, err := parseInt32(rest[1 : 1+digits])
		if err != nil {
			return Token{}, l.errorAt("field id out of range")
		}
		l.advance(digits + 2)
		start.Kind = TokenFieldID
		start.Num = n
		start.Text = rest[:digits+2]
		return start, nil

	case ch == '-' || isDigit(ch):
		sign := 0
		if ch == '-' {
			sign = 1
		}
		digits := countDigits(rest[sign:])
		if digits == 0 {
			return Token{}, l.errorAt("invalid number")
		}
		n, err := parseInt32(rest[:sign+digits])
		if err != nil {
			return Token{}, l.errorAt("number out of range")
		}
		l.advance(sign + digits)
		start.Kind = TokenNumber
		start.Num = n
		return start, nil

	case ch == '"':
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return Token{}, l.errorAt("unterminated string")
		}
		if end == 0 {
			return Token{}, l.errorAt("empty string")
		}
		// copy so the token does not pin the chunk
		text := strings.Clone(rest[1 : 1+end])
		l.advance(end + 2)
		start.Kind = TokenString
		start.Text = text
		return start, nil
	}

	return Token{}, l.errorAt("unexpected input")
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
		l.column++
	}
}

// advance consumes n bytes, keeping line and column in step.
func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

// errorAt builds a LexError covering the offending run up to the next space or newline.
func (l *Lexer) errorAt(reason string) *LexError {
	rest := l.input[l.pos:]
	end := strings.IndexAny(rest, " \t\n")
	if end < 0 {
		end = len(rest)
	}
	if end == 0 {
		end = 1
	}
	return &LexError{
		Pos:    l.pos,
		Line:   l.line,
		Column: l.column,
		Text:   rest[:end],
		Reason: reason,
	}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	return n
}

func parseInt32(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}
