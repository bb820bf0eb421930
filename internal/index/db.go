package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/rec2csv/internal/parse"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS sources (
    source_path TEXT PRIMARY KEY,
    mtime       INTEGER NOT NULL DEFAULT 0,
    size        INTEGER NOT NULL DEFAULT 0,
    records     INTEGER NOT NULL DEFAULT 0,
    errors      INTEGER NOT NULL DEFAULT 0,
    indexed_at  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS records (
    source_path TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    record_id   INTEGER NOT NULL,
    line        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (source_path, seq)
);

CREATE TABLE IF NOT EXISTS fields (
    source_path TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    pos         INTEGER NOT NULL,
    field_id    INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    num         INTEGER NOT NULL DEFAULT 0,
    str         TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (source_path, seq, pos)
);

CREATE TABLE IF NOT EXISTS parse_errors (
    source_path TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    line        INTEGER NOT NULL DEFAULT 0,
    context     TEXT NOT NULL,
    message     TEXT NOT NULL,
    rendered    TEXT NOT NULL,
    PRIMARY KEY (source_path, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS fields_fts USING fts5(
    str,
    content=fields,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- only string values are searchable
CREATE TRIGGER IF NOT EXISTS fields_ai AFTER INSERT ON fields WHEN new.kind = 'str' BEGIN
    INSERT INTO fields_fts(rowid, str) VALUES (new.rowid, new.str);
END;

CREATE TRIGGER IF NOT EXISTS fields_ad AFTER DELETE ON fields WHEN old.kind = 'str' BEGIN
    INSERT INTO fields_fts(fields_fts, rowid, str) VALUES('delete', old.rowid, old.str);
END;
`

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d := &DB{db: db}
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion should be bumped whenever parsing rules change, to force a
// full re-index.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		d.db.Exec("UPDATE sources SET mtime = 0, size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type SourceInfo struct {
	Mtime int64
	Size  int64
}

func (d *DB) GetSourceInfo(path string) (*SourceInfo, error) {
	var info SourceInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM sources WHERE source_path = ?",
		path,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

type SourceRow struct {
	Path      string
	Records   int
	Errors    int
	IndexedAt string
}

func (d *DB) AllSources() ([]SourceRow, error) {
	rows, err := d.db.Query("SELECT source_path, records, errors, indexed_at FROM sources ORDER BY source_path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var s SourceRow
		if err := rows.Scan(&s.Path, &s.Records, &s.Errors, &s.IndexedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) DeleteSource(path string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSourceTx(tx, path); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteSourceTx(tx *sql.Tx, path string) error {
	for _, q := range []string{
		"DELETE FROM fields WHERE source_path = ?",
		"DELETE FROM records WHERE source_path = ?",
		"DELETE FROM parse_errors WHERE source_path = ?",
		"DELETE FROM sources WHERE source_path = ?",
	} {
		if _, err := tx.Exec(q, path); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) count(query string) (int, error) {
	var n int
	err := d.db.QueryRow(query).Scan(&n)
	return n, err
}

func (d *DB) RecordCount() (int, error) {
	return d.count("SELECT COUNT(*) FROM records")
}

func (d *DB) FieldCount() (int, error) {
	return d.count("SELECT COUNT(*) FROM fields")
}

func (d *DB) StringFieldCount() (int, error) {
	return d.count("SELECT COUNT(*) FROM fields WHERE kind = 'str'")
}

// FTSCount returns the number of documents held by the full-text index.
// fields_fts reads through to its content table, so COUNT(*) on it would
// report every field; the docsize shadow table has one row per indexed string.
func (d *DB) FTSCount() (int, error) {
	return d.count("SELECT COUNT(*) FROM fields_fts_docsize")
}

func (d *DB) ErrorCount() (int, error) {
	return d.count("SELECT COUNT(*) FROM parse_errors")
}

type RecordRow struct {
	SourcePath string
	Seq        int
	RecordID   int32
	Line       int
	FieldCount int
}

func (d *DB) GetRecord(path string, seq int) (*RecordRow, error) {
	var r RecordRow
	err := d.db.QueryRow(`
		SELECT r.source_path, r.seq, r.record_id, r.line,
		       (SELECT COUNT(*) FROM fields f WHERE f.source_path = r.source_path AND f.seq = r.seq)
		FROM records r WHERE r.source_path = ? AND r.seq = ?`,
		path, seq,
	).Scan(&r.SourcePath, &r.Seq, &r.RecordID, &r.Line, &r.FieldCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type FieldRow struct {
	Pos     int
	FieldID int32
	Kind    string
	Num     int32
	Str     string
}

// Value converts the stored row back to a parse.Value.
func (f FieldRow) Value() parse.Value {
	if f.Kind == parse.KindStr.String() {
		return parse.StrValue(f.Str)
	}
	return parse.NumValue(f.Num)
}

func (d *DB) GetFields(path string, seq int) ([]FieldRow, error) {
	rows, err := d.db.Query(
		"SELECT pos, field_id, kind, num, str FROM fields WHERE source_path = ? AND seq = ? ORDER BY pos",
		path, seq,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []FieldRow
	for rows.Next() {
		var f FieldRow
		if err := rows.Scan(&f.Pos, &f.FieldID, &f.Kind, &f.Num, &f.Str); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// LoadRecord rebuilds a parsed record from the catalog. It returns nil, nil
// when the record is unknown.
func (d *DB) LoadRecord(path string, seq int) (*parse.Record, error) {
	row, err := d.GetRecord(path, seq)
	if err != nil || row == nil {
		return nil, err
	}
	fields, err := d.GetFields(path, seq)
	if err != nil {
		return nil, err
	}
	rec := &parse.Record{ID: row.RecordID, Fields: make([]parse.Field, 0, len(fields))}
	for _, f := range fields {
		rec.Fields = append(rec.Fields, parse.Field{ID: f.FieldID, Value: f.Value()})
	}
	return rec, nil
}

type ErrorRow struct {
	SourcePath string
	Seq        int
	Line       int
	Context    string
	Message    string
	Rendered   string
}

func (d *DB) GetErrors(path string) ([]ErrorRow, error) {
	rows, err := d.db.Query(
		"SELECT source_path, seq, line, context, message, rendered FROM parse_errors WHERE source_path = ? ORDER BY seq",
		path,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ErrorRow
	for rows.Next() {
		var e ErrorRow
		if err := rows.Scan(&e.SourcePath, &e.Seq, &e.Line, &e.Context, &e.Message, &e.Rendered); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
