package search

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/rec2csv/internal/index"
)

type Result struct {
	SourcePath string
	Seq        int
	RecordID   int32
	Line       int
	FieldID    int32
	Snippet    string
	Rank       float64
}

// Key identifies the record the result belongs to.
func (r Result) Key() string {
	return RecordKey(r.SourcePath, r.Seq)
}

type Options struct {
	Query   string
	Source  string // "" = all sources
	FieldID *int32 // nil = any field
	Limit   int
}

// RecordKey joins a source path and chunk sequence number as "path#seq".
func RecordKey(path string, seq int) string {
	return path + "#" + strconv.Itoa(seq)
}

// ParseRecordKey splits a key made by RecordKey. Paths may contain '#', so
// only the last one separates the seq.
func ParseRecordKey(key string) (string, int, error) {
	i := strings.LastIndexByte(key, '#')
	if i <= 0 || i == len(key)-1 {
		return "", 0, fmt.Errorf("invalid record key %q", key)
	}
	seq, err := strconv.Atoi(key[i+1:])
	if err != nil || seq <= 0 {
		return "", 0, fmt.Errorf("invalid record key %q", key)
	}
	return key[:i], seq, nil
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 || idx > len(text) || query == "" {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	runePos := len([]rune(text[:idx]))
	qLen := len([]rune(query))
	if runePos+qLen > len(runes) {
		// lower-casing may change byte lengths
		qLen = len(runes) - runePos
	}
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:runePos]))
	b.WriteString(">>>")
	b.WriteString(string(runes[runePos : runePos+qLen]))
	b.WriteString("<<<")
	b.WriteString(string(runes[runePos+qLen : end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// Search returns the best matching string field of each record, best first.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// several fields of one record may match; fetch extra before dedup
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Source != "" {
		conditions = append(conditions, "f.source_path = ?")
		args = append(args, opts.Source)
	}
	if opts.FieldID != nil {
		conditions = append(conditions, "f.field_id = ?")
		args = append(args, *opts.FieldID)
	}
	return conditions, args
}

// ftsQuery turns free text into an FTS5 query. Every term becomes a quoted
// string, so punctuation is never read as query syntax. A trailing '*' keeps
// prefix matching, and AND, OR or NOT between two terms stay operators.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	out := make([]string, 0, len(terms))
	for i, t := range terms {
		if isFTSOperator(t) && i > 0 && i < len(terms)-1 && !isFTSOperator(terms[i-1]) {
			out = append(out, t)
			continue
		}
		suffix := ""
		if stem := strings.TrimRight(t, "*"); stem != "" && stem != t {
			t, suffix = stem, "*"
		}
		out = append(out, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`+suffix)
	}
	return strings.Join(out, " ")
}

func isFTSOperator(t string) bool {
	return t == "AND" || t == "OR" || t == "NOT"
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	match := ftsQuery(opts.Query)
	if match == "" {
		return nil, nil
	}
	conditions := []string{"fields_fts MATCH ?"}
	args := []any{match}
	c, a := filters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT
			f.source_path,
			f.seq,
			r.record_id,
			r.line,
			f.field_id,
			snippet(fields_fts, 0, '>>>', '<<<', '...', 16) AS snip,
			bm25(fields_fts) AS rank
		FROM fields_fts
		JOIN fields f ON fields_fts.rowid = f.rowid
		JOIN records r ON r.source_path = f.source_path AND r.seq = f.seq
		WHERE %s
		ORDER BY rank, f.source_path, f.seq, f.pos
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query %q: %w", opts.Query, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.SourcePath, &r.Seq, &r.RecordID, &r.Line, &r.FieldID, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"f.kind = 'str'", "f.str LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	c, a := filters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT f.source_path, f.seq, r.record_id, r.line, f.field_id, f.str
		FROM fields f
		JOIN records r ON r.source_path = f.source_path AND r.seq = f.seq
		WHERE %s
		ORDER BY f.source_path, f.seq, f.pos
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var full string
		if err := rows.Scan(&r.SourcePath, &r.Seq, &r.RecordID, &r.Line, &r.FieldID, &full); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(full, opts.Query, 16)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListRecords returns indexed records in source order without a query. The
// snippet is a one-line summary of the record's fields.
func ListRecords(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 500
	}

	var conditions []string
	var args []any
	if opts.Source != "" {
		conditions = append(conditions, "r.source_path = ?")
		args = append(args, opts.Source)
	}
	if opts.FieldID != nil {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM fields f WHERE f.source_path = r.source_path AND f.seq = r.seq AND f.field_id = ?)")
		args = append(args, *opts.FieldID)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT r.source_path, r.seq, r.record_id, r.line
		FROM records r
		%s
		ORDER BY r.source_path, r.seq
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.SourcePath, &r.Seq, &r.RecordID, &r.Line); err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Snippet, err = summarize(db, results[i].SourcePath, results[i].Seq)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func summarize(db *index.DB, path string, seq int) (string, error) {
	fields, err := db.GetFields(path, seq)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "(no fields)", nil
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("P%d=%s", f.FieldID, f.Value()))
	}
	return strings.Join(parts, " "), nil
}
