package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/stream"
	"github.com/sells-group/catalog-enrich/internal/worklist"
)

var bulkFormat string

var bulkCmd = &cobra.Command{
	Use:   "bulk <worklist-file>",
	Short: "Enrich a work list and stream NDJSON progress to stdout",
	Long:  "Reads targets from a CSV, JSON, XLSX, or plain text work list and processes them in order. One JSON event per line is written to stdout; the terminal complete event carries the batch summary.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnrich(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var targets []model.Target
		switch {
		case bulkFormat == worklist.FormatXLSX:
			targets, err = worklist.ParseXLSXFile(args[0])
			if err != nil {
				return err
			}
		case bulkFormat != "":
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			targets, err = worklist.Parse(f, bulkFormat)
			if err != nil {
				return err
			}
		default:
			targets, err = worklist.ParseFile(args[0])
			if err != nil {
				return err
			}
		}

		em := stream.NewLineEmitter(os.Stdout)
		sum, err := env.Orchestrator.Run(cmd.Context(), targets, em)
		if err != nil {
			return err
		}

		zap.L().Info("bulk run finished",
			zap.Int("succeeded", sum.Succeeded),
			zap.Int("failed", sum.Failed),
			zap.Int("skipped", sum.Skipped))
		return nil
	},
}

func init() {
	bulkCmd.Flags().StringVar(&bulkFormat, "format", "", "work list format: csv, json, xlsx, or text (default: by extension)")
	rootCmd.AddCommand(bulkCmd)
}
