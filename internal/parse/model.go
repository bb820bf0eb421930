package parse

import "strconv"

type ValueKind int

const (
	KindNum ValueKind = iota
	KindStr
)

func (k ValueKind) String() string {
	switch k {
	case KindNum:
		return "num"
	case KindStr:
		return "str"
	default:
		return "unknown"
	}
}

// Value is a field value: either a number or a string, never both.
type Value struct {
	Kind ValueKind
	Num  int32
	Str  string
}

func NumValue(n int32) Value {
	return Value{Kind: KindNum, Num: n}
}

func StrValue(s string) Value {
	return Value{Kind: KindStr, Str: s}
}

func (v Value) String() string {
	if v.Kind == KindStr {
		return `"` + v.Str + `"`
	}
	return strconv.FormatInt(int64(v.Num), 10)
}

type Field struct {
	ID    int32
	Value Value
}

// Record keeps its fields in source order. Ids may repeat.
type Record struct {
	ID     int32
	Fields []Field
}

// Result is the outcome of parsing one chunk. Exactly one of Record and Err is set.
type Result struct {
	Line   int // first line of the chunk in the source
	Record *Record
	Err    *ParseError
}

func (r Result) OK() bool {
	return r.Err == nil
}

