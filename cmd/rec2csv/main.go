package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/rec2csv/internal/config"
	"github.com/Zuo-Peng/rec2csv/internal/logging"
	"github.com/Zuo-Peng/rec2csv/internal/pipeline"
	"github.com/spf13/cobra"
)

var version = "dev"

// logger is set up by the root command before any subcommand runs.
var logger = logging.Discard()

func newRootCmd() *cobra.Command {
	var logLevel string
	var logJSON bool

	rootCmd := &cobra.Command{
		Use:   "rec2csv <source> <numbers.csv> <strings.csv> <errors.log>",
		Short: "Convert record files into numeric and string CSV tables",
		Long: `rec2csv reads a text file of records and writes every numeric field to
<numbers.csv>, every string field to <strings.csv> and a message for each
malformed record to <errors.log>. None of the outputs may exist yet.

The subcommands index converted records into a local SQLite catalog for
searching and browsing.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := logging.ParseLevel(cfg.LogLevel)
			asJSON := logJSON || cfg.LogJSON
			if cmd.Flags().Changed("log-level") {
				level = logging.ParseLevel(logLevel)
			}
			logger = logging.Init(level, asJSON)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(errorsCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(doctorCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConvert(args []string) error {
	paths, err := pipeline.PathsFromArgs(args)
	if err != nil {
		return err
	}
	_, err = pipeline.Convert(paths, logger)
	return err
}
