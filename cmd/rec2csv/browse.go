package main

import (
	"github.com/Zuo-Peng/rec2csv/internal/config"
	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/tui"
	"github.com/spf13/cobra"
)

func browseCmd() *cobra.Command {
	var source string
	var field, limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse all indexed records",
		Long:  `Opens a TUI panel listing indexed records in source order. Type to search string values.`,
		Args:  cobra.NoArgs,
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
			return tui.RunList(db, opts, cfg.EditorCommand())
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Only records from this source file")
	cmd.Flags().IntVar(&field, "field", 0, "Only records having this field id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max records (0 = default)")

	return cmd
}
