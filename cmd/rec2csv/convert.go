package main

import "github.com/spf13/cobra"

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <source> <numbers.csv> <strings.csv> <errors.log>",
		Short: "Convert a record file (same as the root command)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args)
		},
	}
}
