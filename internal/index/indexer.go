package index

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Zuo-Peng/rec2csv/internal/parse"
	"github.com/Zuo-Peng/rec2csv/internal/pipeline"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// Writer is a pipeline.Sink that stores results of one source inside a
// transaction. Every chunk, parsed or rejected, takes the next seq number.
type Writer struct {
	path      string
	seq       int
	insRecord *sql.Stmt
	insField  *sql.Stmt
	insError  *sql.Stmt
}

var _ pipeline.Sink = (*Writer)(nil)

func newWriter(tx *sql.Tx, path string) (*Writer, error) {
	w := &Writer{path: path}
	var err error
	if w.insRecord, err = tx.Prepare(
		`INSERT INTO records (source_path, seq, record_id, line) VALUES (?, ?, ?, ?)`,
	); err != nil {
		return nil, err
	}
	if w.insField, err = tx.Prepare(
		`INSERT INTO fields (source_path, seq, pos, field_id, kind, num, str) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	); err != nil {
		w.Close()
		return nil, err
	}
	if w.insError, err = tx.Prepare(
		`INSERT INTO parse_errors (source_path, seq, line, context, message, rendered) VALUES (?, ?, ?, ?, ?, ?)`,
	); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Write(res parse.Result) error {
	w.seq++
	if res.Err != nil {
		_, err := w.insError.Exec(w.path, w.seq, res.Line, res.Err.Context(), res.Err.Message, res.Err.Error())
		return err
	}

	if _, err := w.insRecord.Exec(w.path, w.seq, res.Record.ID, res.Line); err != nil {
		return err
	}
	for pos, f := range res.Record.Fields {
		_, err := w.insField.Exec(w.path, w.seq, pos, f.ID, f.Value.Kind.String(), f.Value.Num, f.Value.Str)
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op; IndexFile commits the transaction once the run succeeded.
func (w *Writer) Flush() error {
	return nil
}

func (w *Writer) Close() {
	for _, s := range []*sql.Stmt{w.insRecord, w.insField, w.insError} {
		if s != nil {
			s.Close()
		}
	}
}

// IndexFile replaces everything stored for path with a fresh parse of it.
func IndexFile(db *DB, path string, logger *slog.Logger) (pipeline.Stats, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return pipeline.Stats{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return pipeline.Stats{}, err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer tx.Rollback()

	if err := deleteSourceTx(tx, abs); err != nil {
		return pipeline.Stats{}, err
	}

	w, err := newWriter(tx, abs)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer w.Close()

	stats, err := pipeline.Run(f, w, logger)
	if err != nil {
		return stats, err
	}

	_, err = tx.Exec(
		`INSERT INTO sources (source_path, mtime, size, records, errors, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		abs,
		info.ModTime().Unix(),
		info.Size(),
		stats.Records,
		stats.Errors,
		time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	)
	if err != nil {
		return stats, err
	}

	return stats, tx.Commit()
}

// IndexAll indexes every path whose mtime or size changed since the last run.
// With prune set, sources whose files are gone are removed from the catalog.
func IndexAll(db *DB, paths []string, prune bool, logger *slog.Logger) (Stats, error) {
	var stats Stats

	for _, p := range paths {
		stats.Scanned++
		abs, err := filepath.Abs(p)
		if err != nil {
			stats.Errors++
			logger.Warn("resolve path", "path", p, "err", err)
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			stats.Errors++
			logger.Warn("stat source", "path", abs, "err", err)
			continue
		}

		needs, err := needsUpdate(db, abs, info.ModTime().Unix(), info.Size())
		if err != nil {
			stats.Errors++
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		ps, err := IndexFile(db, abs, logger)
		if err != nil {
			stats.Errors++
			logger.Warn("index source", "path", abs, "err", err)
			continue
		}
		logger.Info("indexed", "path", abs, "stats", ps.String())
		stats.Updated++
	}

	if prune {
		pruned, err := pruneSources(db)
		if err != nil {
			return stats, fmt.Errorf("prune: %w", err)
		}
		stats.Pruned = pruned
	}

	return stats, nil
}

func needsUpdate(db *DB, path string, mtime, size int64) (bool, error) {
	info, err := db.GetSourceInfo(path)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new source
	}
	return info.Mtime != mtime || info.Size != size, nil
}

func pruneSources(db *DB) (int, error) {
	sources, err := db.AllSources()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, s := range sources {
		if _, err := os.Stat(s.Path); !os.IsNotExist(err) {
			continue
		}
		if err := db.DeleteSource(s.Path); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
