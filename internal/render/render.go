package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/search"
	"github.com/mattn/go-runewidth"
)

const (
	colorReset   = "\033[0m"
	colorField   = "\033[1;34m" // bold blue
	colorNum     = "\033[32m"
	colorStr     = "\033[33m"
	colorDim     = "\033[2m"
	colorBoldRed = "\033[1;31m" // keyword highlights
)

type Options struct {
	Width int    // wrap width (0 = no wrap)
	Query string // search query for keyword highlighting
	Plain bool   // no ANSI colors
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	for _, term := range strings.Fields(query) {
		term = strings.Trim(term, `"*()`)
		if term == "" || fts5Operators[term] {
			continue
		}
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			end := pos + len(term)
			if end > len(text) {
				break
			}
			replacement := colorBoldRed + text[pos:end] + colorReset
			text = text[:pos] + replacement + text[end:]
			i = pos + len(replacement)
		}
	}
	return text
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)
		if visW+rw > maxWidth && visW > 0 {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}
		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}
	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// RenderRecord renders one indexed record as a header followed by one
// aligned row per field, in source order.
func RenderRecord(db *index.DB, key string, opts Options) (string, error) {
	path, seq, err := search.ParseRecordKey(key)
	if err != nil {
		return "", err
	}
	row, err := db.GetRecord(path, seq)
	if err != nil {
		return "", fmt.Errorf("get record: %w", err)
	}
	if row == nil {
		return "", fmt.Errorf("record not found: %s", key)
	}
	fields, err := db.GetFields(path, seq)
	if err != nil {
		return "", fmt.Errorf("get fields: %w", err)
	}

	color := func(c, s string) string {
		if opts.Plain {
			return s
		}
		return c + s + colorReset
	}

	var b strings.Builder
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
		}
	}

	writeLine(color(colorDim, fmt.Sprintf("--- Record: %d  %s:%d ---", row.RecordID, path, row.Line)))
	if len(fields) == 0 {
		writeLine(color(colorDim, "  (no fields)"))
		return b.String(), nil
	}

	labelW := 0
	for _, f := range fields {
		labelW = max(labelW, runewidth.StringWidth(fieldLabel(f.FieldID)))
	}

	for _, f := range fields {
		label := runewidth.FillRight(fieldLabel(f.FieldID), labelW)
		var val string
		if f.Kind == "str" {
			text := f.Value().String()
			if !opts.Plain {
				text = highlightKeywords(text, opts.Query)
			}
			val = color(colorStr, text)
		} else {
			val = color(colorNum, f.Value().String())
		}
		writeLine("  " + color(colorField, label) + "  " + val)
	}
	return b.String(), nil
}

func fieldLabel(id int32) string {
	return fmt.Sprintf("P%d", id)
}

// RenderErrors lists the rejected chunks of a source with their messages.
func RenderErrors(db *index.DB, path string, opts Options) (string, error) {
	rows, err := db.GetErrors(path)
	if err != nil {
		return "", fmt.Errorf("get errors: %w", err)
	}
	if len(rows) == 0 {
		return "(no errors)\n", nil
	}

	var b strings.Builder
	for _, e := range rows {
		head := fmt.Sprintf("%s:%d [%s]", e.SourcePath, e.Line, e.Context)
		if !opts.Plain {
			head = colorBoldRed + head + colorReset
		}
		for _, wl := range wrapLine(head+" "+e.Message, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
