package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/rec2csv/internal/config"
	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func previewCmd() *cobra.Command {
	var query string
	var width int

	cmd := &cobra.Command{
		Use:   "preview <recordKey>",
		Short: "Show the fields of one indexed record",
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

			out, err := render.RenderRecord(db, args[0], render.Options{
				Width: width,
				Query: query,
			})
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = no wrap)")

	return cmd
}

func errorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors <source>",
		Short: "List the malformed records of an indexed source",
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

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			out, err := render.RenderErrors(db, abs, render.Options{
				Plain: !term.IsTerminal(int(os.Stdout.Fd())),
			})
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}
