package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zuo-Peng/rec2csv/internal/config"
	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/search"
	"github.com/Zuo-Peng/rec2csv/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	return strings.ReplaceAll(snippet, "<<<", sColorReset)
}

// searchOptions turns the shared filter flags into search options.
func searchOptions(cmd *cobra.Command, source string, field, limit int) (search.Options, error) {
	opts := search.Options{Limit: limit}
	if source != "" {
		abs, err := filepath.Abs(source)
		if err != nil {
			return opts, err
		}
		opts.Source = abs
	}
	if cmd.Flags().Changed("field") {
		id := int32(field)
		opts.FieldID = &id
	}
	return opts, nil
}

func formatTSV(r search.Result) string {
	snippet := strings.NewReplacer("\t", " ", "\n", " ").Replace(r.Snippet)
	// the first column stays plain for fzf {1}
	return fmt.Sprintf("%s\t%s%d%s\tP%d\t%s%s:%d%s\t%s",
		r.Key(),
		sColorGreen, r.RecordID, sColorReset,
		r.FieldID,
		sColorDim, filepath.Base(r.SourcePath), r.Line, sColorReset,
		colorizeSnippet(snippet),
	)
}

func searchCmd() *cobra.Command {
	var source string
	var field, limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed string values",
		Long: `Search string field values using FTS5. Output is TSV for fzf integration:
  recordKey, recordId, field, file:line, snippet

Example shell function:
  recf() {
    rec2csv search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=2.. \
      --preview 'rec2csv preview {1} --query {q}' \
      --bind 'enter:execute(rec2csv open {1})'
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			refreshIndex(db)

			opts, err := searchOptions(cmd, source, field, limit)
			if err != nil {
				return err
			}

			// interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, args[0], opts, cfg.EditorCommand())
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}
			for _, r := range results {
				fmt.Println(formatTSV(r))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Only records from this source file")
	cmd.Flags().IntVar(&field, "field", 0, "Only values of this field id")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
