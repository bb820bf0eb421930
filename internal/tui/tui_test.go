package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/logging"
	"github.com/Zuo-Peng/rec2csv/internal/search"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

func TestFormatResultLine(t *testing.T) {
	r := search.Result{
		SourcePath: "/data/input.lst",
		Seq:        3,
		RecordID:   42,
		Line:       17,
		FieldID:    5,
		Snippet:    "a >>>needle<<< here",
	}
	lines := formatResultLine(r, 40, true)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "Record: 42") || !strings.Contains(lines[0], "input.lst:17") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "P5: a needle here") {
		t.Errorf("line 2 = %q", lines[1])
	}

	// list summaries carry no field prefix
	r.Snippet = `P1=3 P2="x"`
	lines = formatResultLine(r, 40, false)
	if strings.Contains(lines[1], "P5:") {
		t.Errorf("unexpected prefix: %q", lines[1])
	}

	r.Snippet = strings.Repeat("long ", 40)
	lines = formatResultLine(r, 30, false)
	if w := runewidth.StringWidth(stripANSI(lines[1])); w > 30 {
		t.Errorf("snippet width %d exceeds 30", w)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func TestAdjustListScroll(t *testing.T) {
	tests := []struct {
		cursor, offset, height int
		want                   int
	}{
		{0, 0, 10, 0},
		{4, 0, 10, 0},
		{5, 0, 10, 1},
		{2, 4, 10, 2},
		{3, 0, 1, 3}, // at least one visible item
	}
	for _, tt := range tests {
		m := &model{cursor: tt.cursor, listOffset: tt.offset}
		m.adjustListScroll(tt.height)
		if m.listOffset != tt.want {
			t.Errorf("cursor=%d offset=%d height=%d: got %d, want %d",
				tt.cursor, tt.offset, tt.height, m.listOffset, tt.want)
		}
	}
}

func TestLayout(t *testing.T) {
	m := model{}
	if m.listWidth() != 40 || m.previewWidth() != 60 || m.panelHeight() != 20 {
		t.Errorf("defaults: %d %d %d", m.listWidth(), m.previewWidth(), m.panelHeight())
	}
	m.width, m.height = 100, 30
	if m.listWidth() != 36 || m.previewWidth() != 56 || m.panelHeight() != 24 {
		t.Errorf("sized: %d %d %d", m.listWidth(), m.previewWidth(), m.panelHeight())
	}

	if region, idx := m.hitTest(5, 2); region != regionList || idx != 0 {
		t.Errorf("hitTest list = %v %d", region, idx)
	}
	if region, _ := m.hitTest(80, 10); region != regionPreview {
		t.Errorf("hitTest preview = %v", region)
	}
	if region, _ := m.hitTest(5, 0); region != regionNone {
		t.Errorf("hitTest input row = %v", region)
	}
}

func TestUpdateDropsStaleResults(t *testing.T) {
	m := initialModel(nil, modeSearch, "fox", search.Options{})
	next, _ := m.Update(searchResultMsg{query: "fo", results: []search.Result{{Seq: 1}}})
	if got := next.(model); len(got.results) != 0 {
		t.Errorf("stale results applied: %+v", got.results)
	}

	next, _ = m.Update(searchResultMsg{query: "fox"})
	if got := next.(model); got.cursor != 0 || len(got.results) != 0 {
		t.Errorf("empty results: %+v", got)
	}
}

func TestEnterChoosesRecord(t *testing.T) {
	m := initialModel(nil, modeSearch, "", search.Options{})
	m.results = []search.Result{{SourcePath: "/a.lst", Seq: 1}, {SourcePath: "/a.lst", Seq: 2}}
	m.cursor = 1

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := next.(model)
	if cmd == nil || got.chosen == nil || got.chosen.Seq != 2 || got.action != actionCopy {
		t.Errorf("enter: chosen=%+v action=%v", got.chosen, got.action)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	if got := next.(model); got.action != actionOpen {
		t.Errorf("ctrl+o action = %v", got.action)
	}
}

func TestRecordCSV(t *testing.T) {
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	src := filepath.Join(t.TempDir(), "a.lst")
	content := "Record: 9\nP02: \"x y\"\nP01: -1\n%\n"
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := index.IndexFile(db, src, logging.Discard()); err != nil {
		t.Fatal(err)
	}

	got, err := recordCSV(db, search.RecordKey(src, 1))
	if err != nil {
		t.Fatalf("recordCSV: %v", err)
	}
	if want := "9;2;\"x y\"\n9;1;-1\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := recordCSV(db, search.RecordKey(src, 2)); err == nil {
		t.Error("expected error for missing record")
	}
}
