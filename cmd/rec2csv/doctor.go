package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Zuo-Peng/rec2csv/internal/config"
	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/parse"
	"github.com/Zuo-Peng/rec2csv/internal/scan"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [source...]",
		Short: "Self-check: config, DB, FTS5, and chunk stats of sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "=== Config ===")
			fmt.Fprintf(out, "  DB:        %s\n", cfg.DBPath)
			fmt.Fprintf(out, "  Log level: %s\n", cfg.LogLevel)
			fmt.Fprintf(out, "  Editor:    %s\n", cfg.EditorCommand())

			if len(args) > 0 {
				fmt.Fprintln(out, "\n=== Sources ===")
				for _, p := range args {
					checkSource(out, p)
				}
			}

			fmt.Fprintln(out, "\n=== Database ===")
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "  Status: NOT FOUND (run 'rec2csv index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			sources, err := db.AllSources()
			if err != nil {
				return fmt.Errorf("list sources: %w", err)
			}
			records, err := db.RecordCount()
			if err != nil {
				return fmt.Errorf("count records: %w", err)
			}
			fields, err := db.FieldCount()
			if err != nil {
				return fmt.Errorf("count fields: %w", err)
			}
			rejected, err := db.ErrorCount()
			if err != nil {
				return fmt.Errorf("count errors: %w", err)
			}
			fmt.Fprintf(out, "  Sources: %d\n", len(sources))
			fmt.Fprintf(out, "  Records: %d\n", records)
			fmt.Fprintf(out, "  Fields:  %d\n", fields)
			fmt.Fprintf(out, "  Errors:  %d\n", rejected)

			fmt.Fprintln(out, "\n=== FTS5 ===")
			strs, err := db.StringFieldCount()
			if err != nil {
				return fmt.Errorf("count string fields: %w", err)
			}
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Fprintf(out, "  FTS5 error: %v\n", err)
			} else {
				fmt.Fprintf(out, "  FTS5 entries: %d\n", ftsCount)
				if ftsCount == strs {
					fmt.Fprintln(out, "  Status: OK (synced)")
				} else {
					fmt.Fprintf(out, "  Status: MISMATCH (strings=%d, fts=%d)\n", strs, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Fprintf(out, "\n=== DB Size: %.1f MB ===\n", float64(info.Size())/1024/1024)
			}
			return nil
		},
	}
}

type chunkStats struct {
	Lines      int
	Chunks     int
	Parsed     int
	Rejected   int
	Incomplete int
}

// countChunks scans r without writing anything.
func countChunks(r io.Reader) (chunkStats, error) {
	var st chunkStats
	sc := scan.NewScanner(r)
	for {
		chunk, err := sc.Next()
		if errors.Is(err, io.EOF) {
			st.Lines = sc.Line()
			return st, nil
		}
		if err != nil {
			return st, err
		}
		st.Chunks++
		if !chunk.Complete {
			st.Incomplete++
		}
		if _, err := parse.Parse(chunk.Text); err != nil {
			st.Rejected++
		} else {
			st.Parsed++
		}
	}
}

func checkSource(out io.Writer, path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(out, "  %s (NOT FOUND)\n", path)
		return
	}
	defer f.Close()

	st, err := countChunks(f)
	if err != nil {
		fmt.Fprintf(out, "  %s (READ ERROR: %v)\n", path, err)
		return
	}
	fmt.Fprintf(out, "  %s: lines=%d chunks=%d parsed=%d rejected=%d incomplete=%d\n",
		path, st.Lines, st.Chunks, st.Parsed, st.Rejected, st.Incomplete)
}
