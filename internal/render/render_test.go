package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/logging"
	"github.com/Zuo-Peng/rec2csv/internal/search"
	"github.com/mattn/go-runewidth"
)

func indexSample(t *testing.T, content string) (*index.DB, string) {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	src := filepath.Join(t.TempDir(), "a.lst")
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := index.IndexFile(db, src, logging.Discard()); err != nil {
		t.Fatal(err)
	}
	return db, src
}

func TestRenderRecordPlain(t *testing.T) {
	db, src := indexSample(t, "\nRecord: 7\nP2: \"two\"\nP100: -5\n%\n")

	out, err := RenderRecord(db, search.RecordKey(src, 1), Options{Plain: true})
	if err != nil {
		t.Fatalf("RenderRecord: %v", err)
	}
	want := "--- Record: 7  " + src + ":2 ---\n" +
		"  P2    \"two\"\n" +
		"  P100  -5\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestRenderRecordEmpty(t *testing.T) {
	db, src := indexSample(t, "Record: 1\n%\n")
	out, err := RenderRecord(db, search.RecordKey(src, 1), Options{Plain: true})
	if err != nil {
		t.Fatalf("RenderRecord: %v", err)
	}
	if !strings.Contains(out, "(no fields)") {
		t.Errorf("got %q", out)
	}
}

func TestRenderRecordNotFound(t *testing.T) {
	db, src := indexSample(t, "Record: 1\n%\n")
	if _, err := RenderRecord(db, search.RecordKey(src, 9), Options{}); err == nil {
		t.Error("expected error for unknown record")
	}
	if _, err := RenderRecord(db, "bad-key", Options{}); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestRenderErrors(t *testing.T) {
	db, src := indexSample(t, "Record: x\n%\nRecord: 2\n%\n")
	out, err := RenderErrors(db, src, Options{Plain: true})
	if err != nil {
		t.Fatalf("RenderErrors: %v", err)
	}
	want := src + `:1 [header] Expected a record id (a number)` + "\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestHighlightKeywords(t *testing.T) {
	tests := []struct {
		text, query, want string
	}{
		{"hello world", "", "hello world"},
		{"Hello World", "world", "Hello " + colorBoldRed + "World" + colorReset},
		{"a and b", "AND", "a and b"},
		{"foo bar foo", "foo", colorBoldRed + "foo" + colorReset + " bar " + colorBoldRed + "foo" + colorReset},
		{"quoted", `"quoted"`, colorBoldRed + "quoted" + colorReset},
	}
	for _, tt := range tests {
		if got := highlightKeywords(tt.text, tt.query); got != tt.want {
			t.Errorf("highlightKeywords(%q, %q) = %q, want %q", tt.text, tt.query, got, tt.want)
		}
	}
}

func TestWrapLine(t *testing.T) {
	if got := wrapLine("abcdef", 0); len(got) != 1 || got[0] != "abcdef" {
		t.Errorf("no wrap: %q", got)
	}

	got := wrapLine("abcdefg", 3)
	if strings.Join(got, "|") != "abc|def|g" {
		t.Errorf("ascii wrap: %q", got)
	}

	// wide runes take two columns
	for _, l := range wrapLine("中文中文中", 4) {
		if w := runewidth.StringWidth(l); w > 4 {
			t.Errorf("line %q has width %d", l, w)
		}
	}

	// escapes take no columns
	colored := colorBoldRed + "abcd" + colorReset
	if got := wrapLine(colored, 4); len(got) != 1 {
		t.Errorf("escape sequences counted as width: %q", got)
	}
}
