package parse

import (
	"errors"
	"reflect"
	"testing"
)

const sampleRecord = "Record: 12\n" +
	"P01: 321\n" +
	"P02: \"sample text\"\n" +
	"P03:  -66\n" +
	"P04:  \"sth\"\n" +
	"%\n"

func TestParseRecord(t *testing.T) {
	rec, err := Parse(sampleRecord)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &Record{
		ID: 12,
		Fields: []Field{
			{ID: 1, Value: NumValue(321)},
			{ID: 2, Value: StrValue("sample text")},
			{ID: 3, Value: NumValue(-66)},
			{ID: 4, Value: StrValue("sth")},
		},
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("got %+v, want %+v", rec, want)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	a, err := Parse(sampleRecord)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse(sampleRecord)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("re-parse differs: %+v vs %+v", a, b)
	}
}

func TestParseKeepsOrderAndDuplicates(t *testing.T) {
	rec, err := Parse("Record: 1\nP05: 1\nP01: \"a\"\nP05: 2\n%\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var ids []int32
	for _, f := range rec.Fields {
		ids = append(ids, f.ID)
	}
	if !reflect.DeepEqual(ids, []int32{5, 1, 5}) {
		t.Errorf("field ids = %v, want [5 1 5]", ids)
	}
}

func TestParseNegativeField(t *testing.T) {
	rec, err := Parse("Record: 1\nP01: -321\n%\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Field{ID: 1, Value: NumValue(-321)}
	if len(rec.Fields) != 1 || rec.Fields[0] != want {
		t.Errorf("fields = %+v, want [%+v]", rec.Fields, want)
	}
}

func TestParseEmptyRecord(t *testing.T) {
	rec, err := Parse("Record: -4\n%\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.ID != -4 || len(rec.Fields) != 0 {
		t.Errorf("got %+v", rec)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    ErrorKind
		context string
		message string
		found   string
		line    int
	}{
		{
			name:    "missing record marker",
			input:   "Rec: 1\n%\n",
			kind:    ErrHeader,
			context: "header",
			message: msgRecordStart,
			found:   `unexpected input "Rec:"`,
			line:    1,
		},
		{
			name:    "record id not a number",
			input:   "Record: \"x\"\n%\n",
			kind:    ErrHeader,
			context: "header",
			message: msgRecordID,
			found:   `string "x"`,
			line:    1,
		},
		{
			name:    "no new line after id",
			input:   "Record: 1 2\n%\n",
			kind:    ErrHeader,
			context: "header",
			message: msgHeaderLine,
			found:   "number 2",
			line:    1,
		},
		{
			name:    "stray line in body",
			input:   "Record: 3\nP02: \"a\"\ng4rb4ge\nP01: -123\n%\n",
			kind:    ErrField,
			context: "fields",
			message: msgFieldID,
			found:   `unexpected input "g4rb4ge"`,
			line:    3,
		},
		{
			name:    "number where field id expected",
			input:   "Record: 3\n12\n%\n",
			kind:    ErrField,
			context: "fields",
			message: msgFieldID,
			found:   "number 12",
			line:    2,
		},
		{
			name:    "missing terminator",
			input:   "Record: 3\nP01: 1\n",
			kind:    ErrField,
			context: "fields",
			message: msgFieldID,
			found:   "end of record",
			line:    3,
		},
		{
			name:    "value is a field id",
			input:   "Record: 3\nP01: P02:\n%\n",
			kind:    ErrValue,
			context: "field",
			message: msgFieldValue,
			found:   `field id "P02:"`,
			line:    2,
		},
		{
			name:    "missing value",
			input:   "Record: 3\nP01:\n%\n",
			kind:    ErrValue,
			context: "field",
			message: msgFieldValue,
			found:   "new line",
			line:    2,
		},
		{
			name:    "two values",
			input:   "Record: 3\nP01: 1 2\n%\n",
			kind:    ErrValue,
			context: "field",
			message: msgFieldLine,
			found:   "number 2",
			line:    2,
		},
		{
			name:    "content after terminator",
			input:   "Record: 12\nP01: 321\n%\nP02",
			kind:    ErrTrailing,
			context: "fields",
			message: msgTrailing,
			found:   `invalid field id "P02"`,
			line:    4,
		},
		{
			name:    "second record in same chunk",
			input:   "Record: 1\n%\nRecord: 2\n%\n",
			kind:    ErrTrailing,
			context: "fields",
			message: msgTrailing,
			found:   `"Record:"`,
			line:    3,
		},
		{
			name:    "terminator without new line",
			input:   "Record: 1\n%",
			kind:    ErrTrailing,
			context: "fields",
			message: msgTrailing,
			found:   "end of record",
			line:    2,
		},
		{
			name:    "text after terminator on same line",
			input:   "Record: 1\n% 5\n",
			kind:    ErrTrailing,
			context: "fields",
			message: msgTrailing,
			found:   "number 5",
			line:    2,
		},
		{
			name:    "blank after terminator",
			input:   "Record: 1\nP01: 5\n% \n",
			kind:    ErrTrailing,
			context: "fields",
			message: msgTrailing,
			found:   `whitespace " "`,
			line:    3,
		},
		{
			name:    "tab after terminator at end of input",
			input:   "Record: 1\n%\t",
			kind:    ErrTrailing,
			context: "fields",
			message: msgTrailing,
			found:   `whitespace "\t"`,
			line:    2,
		},
		{
			name:    "blank line after terminator",
			input:   "Record: 1\n%\n   ",
			kind:    ErrTrailing,
			context: "fields",
			message: msgTrailing,
			found:   `whitespace "   "`,
			line:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse(tt.input)
			if rec != nil {
				t.Errorf("expected no record, got %+v", rec)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if perr.Kind != tt.kind || !errors.Is(err, tt.kind) {
				t.Errorf("kind = %v, want %v", perr.Kind, tt.kind)
			}
			if perr.Context() != tt.context {
				t.Errorf("context = %q, want %q", perr.Context(), tt.context)
			}
			if perr.Message != tt.message {
				t.Errorf("message = %q, want %q", perr.Message, tt.message)
			}
			if perr.Found != tt.found {
				t.Errorf("found = %q, want %q", perr.Found, tt.found)
			}
			if perr.Line != tt.line {
				t.Errorf("line = %d, want %d", perr.Line, tt.line)
			}
		})
	}
}

func TestParseErrorDisplay(t *testing.T) {
	err := &ParseError{Kind: ErrField, Head: "Record 1", Message: "whatever"}
	want := "Error when parsing \"Record 1...\":\nfields: whatever\n"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	err.Found = "number 3"
	err.Line = 2
	want = "Error when parsing \"Record 1...\":\nfields: whatever (found number 3, line 2)\n"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseErrorHeadIsFirstLine(t *testing.T) {
	_, err := Parse("Record: 9\nP1: x\n%\n")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Head != "Record: 9" {
		t.Errorf("head = %q", perr.Head)
	}
}

func TestParseChunk(t *testing.T) {
	ok := ParseChunk(sampleRecord, 40)
	if !ok.OK() || ok.Record == nil || ok.Line != 40 {
		t.Errorf("unexpected result %+v", ok)
	}
	bad := ParseChunk("Record: x\n%\n", 7)
	if bad.OK() || bad.Record != nil || bad.Err == nil || bad.Line != 7 {
		t.Errorf("unexpected result %+v", bad)
	}
}

func TestUnterminated(t *testing.T) {
	res := Unterminated("Record: 4\nP01: 1\n", 9)
	if res.OK() || res.Record != nil || res.Line != 9 {
		t.Fatalf("unexpected result %+v", res)
	}
	e := res.Err
	if e.Kind != ErrField || e.Head != "Record: 4" || e.Found != "end of record" || e.Line != 3 {
		t.Errorf("unexpected error %+v", e)
	}
}
