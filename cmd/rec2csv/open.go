package main

import (
	"github.com/Zuo-Peng/rec2csv/internal/config"
	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/open"
	"github.com/spf13/cobra"
)

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <recordKey>",
		Short: "Open the source file in the editor at the record line",
		Args:  cobra.ExactArgs(1),
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

			return open.OpenRecord(db, args[0], cfg.EditorCommand())
		},
	}
}
