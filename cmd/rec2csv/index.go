package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/rec2csv/internal/config"
	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "index <source>...",
		Short: "Parse record files into the SQLite catalog",
		Long: `Parses each source into the catalog. Unchanged files (same mtime and size)
are skipped. Without arguments, every source already in the catalog is
refreshed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			paths := args
			if len(paths) == 0 {
				if paths, err = knownSources(db); err != nil {
					return fmt.Errorf("list sources: %w", err)
				}
			}

			stats, err := index.IndexAll(db, paths, prune, logger)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Drop catalog entries whose source file is gone")

	return cmd
}

func knownSources(db *index.DB) ([]string, error) {
	sources, err := db.AllSources()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(sources))
	for _, s := range sources {
		paths = append(paths, s.Path)
	}
	return paths, nil
}

// refreshIndex re-indexes catalog sources that changed on disk.
func refreshIndex(db *index.DB) {
	paths, err := knownSources(db)
	if err != nil {
		logger.Warn("list sources", "err", err)
		return
	}
	if _, err := index.IndexAll(db, paths, false, logger); err != nil {
		logger.Warn("refresh index", "err", err)
	}
}
