package parse

import (
	"errors"
	"io"
	"testing"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeRecord(t *testing.T) {
	input := "Record: 12\n" +
		"P01: 321\n" +
		"P02: \"sample text\"\n" +
		"P03:  -66\n" +
		"P04:  \"sth\"\n" +
		"%\n"

	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	want := []Token{
		{Kind: TokenRecordStart},
		{Kind: TokenNumber, Num: 12},
		{Kind: TokenNewLine},
		{Kind: TokenFieldID, Num: 1, Text: "P01:"},
		{Kind: TokenNumber, Num: 321},
		{Kind: TokenNewLine},
		{Kind: TokenFieldID, Num: 2, Text: "P02:"},
		{Kind: TokenString, Text: "sample text"},
		{Kind: TokenNewLine},
		{Kind: TokenFieldID, Num: 3, Text: "P03:"},
		{Kind: TokenNumber, Num: -66},
		{Kind: TokenNewLine},
		{Kind: TokenFieldID, Num: 4, Text: "P04:"},
		{Kind: TokenString, Text: "sth"},
		{Kind: TokenNewLine},
		{Kind: TokenRecordEnd},
		{Kind: TokenNewLine},
	}

	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), kinds(tokens), len(want))
	}
	for i, w := range want {
		got := tokens[i]
		if got.Kind != w.Kind || got.Num != w.Num || got.Text != w.Text {
			t.Errorf("token %d = %v, want %v", i, got, w)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("Record: 7\nP3: \"x\"\n")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	tests := []struct {
		idx          int
		pos, line, c int
	}{
		{0, 0, 1, 1},  // Record:
		{1, 8, 1, 9},  // 7
		{2, 9, 1, 10}, // \n
		{3, 10, 2, 1}, // P3:
		{4, 14, 2, 5}, // "x"
	}
	for _, tt := range tests {
		tok := tokens[tt.idx]
		if tok.Pos != tt.pos || tok.Line != tt.line || tok.Column != tt.c {
			t.Errorf("token %d (%v) at pos=%d line=%d col=%d, want %d/%d/%d",
				tt.idx, tok, tok.Pos, tok.Line, tok.Column, tt.pos, tt.line, tt.c)
		}
	}
}

func TestFieldIDPreferredOverNumber(t *testing.T) {
	tokens, err := Tokenize("P007: 8")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Kind != TokenFieldID || tokens[0].Num != 7 || tokens[0].Text != "P007:" {
		t.Fatalf("got %v, want FieldId(7) Number(8)", tokens)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		text   string
		reason string
		line   int
		column int
	}{
		{"garbage line", "Record: 3\ng4rb4ge\n", "g4rb4ge", "unexpected input", 2, 1},
		{"field id without colon", "P12 5", "P12", "invalid field id", 1, 1},
		{"field id without digits", "P: 5", "P:", "invalid field id", 1, 1},
		{"lone minus", "P1: - 5", "-", "invalid number", 1, 5},
		{"unterminated string", `P1: "abc`, `"abc`, "unterminated string", 1, 5},
		{"empty string", `P1: ""`, `""`, "empty string", 1, 5},
		{"number out of range", "P1: 2147483648", "2147483648", "number out of range", 1, 5},
		{"field id out of range", "P99999999999: 1", "P99999999999:", "field id out of range", 1, 1},
		{"carriage return", "%\r\n", "\r", "unexpected input", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected *LexError, got %v", err)
			}
			if lexErr.Text != tt.text || lexErr.Reason != tt.reason {
				t.Errorf("got %q (%s), want %q (%s)", lexErr.Text, lexErr.Reason, tt.text, tt.reason)
			}
			if lexErr.Line != tt.line || lexErr.Column != tt.column {
				t.Errorf("got line %d col %d, want line %d col %d", lexErr.Line, lexErr.Column, tt.line, tt.column)
			}
		})
	}
}

func TestInt32Bounds(t *testing.T) {
	tokens, err := Tokenize("-2147483648 2147483647")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if tokens[0].Num != -2147483648 || tokens[1].Num != 2147483647 {
		t.Errorf("got %v", tokens)
	}
}

func TestLexerIsLazyAndSticky(t *testing.T) {
	l := NewLexer("% ?? %")
	tok, err := l.Next()
	if err != nil || tok.Kind != TokenRecordEnd {
		t.Fatalf("first token = %v, %v", tok, err)
	}
	if rem := l.Remainder(); rem != " ?? %" {
		t.Errorf("Remainder = %q", rem)
	}
	_, err = l.Next()
	if err == nil {
		t.Fatal("expected lexical error")
	}
	if _, again := l.Next(); again != err {
		t.Errorf("error not sticky: %v", again)
	}
}

func TestAllStopsAfterError(t *testing.T) {
	var n, errs int
	for _, err := range NewLexer("% ! %").All() {
		n++
		if err != nil {
			errs++
		}
	}
	if n != 2 || errs != 1 {
		t.Errorf("yielded %d items with %d errors, want 2 and 1", n, errs)
	}
}

func TestLexerEOF(t *testing.T) {
	l := NewLexer("   ")
	if _, err := l.Next(); err != io.EOF {
		t.Errorf("got %v, want io.EOF", err)
	}
}
