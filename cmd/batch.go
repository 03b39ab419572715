package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lehigh-university-libraries/inkrhythm/internal/batch"
	"github.com/lehigh-university-libraries/inkrhythm/internal/gateway"
	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Appraise many image pairs and report on the scores",
		Long: `Batch tools for appraising a dataset of master/practice pairs.

A dataset is a JSONL or Parquet file with one row per pair:
  {"id": "...", "master_path": "...", "user_path": "..."}
Relative paths are resolved against the dataset's directory.`,
	}

	cmd.AddCommand(newBatchRunCmd())
	cmd.AddCommand(newBatchReportCmd())

	return cmd
}

func newBatchRunCmd() *cobra.Command {
	var (
		datasetPath string
		outputDir   string
		concurrency int
		maxUpload   int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Appraise every pair in a dataset",
		Example: `  # Appraise pairs with 4 requests in flight
  inkrhythm batch run --dataset pairs.jsonl --concurrency 4

  # Parquet datasets work the same way
  inkrhythm batch run --dataset pairs.parquet --output evals`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := batch.LoadPairs(datasetPath)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			slog.Info("Dataset loaded", "pairs", len(pairs))

			cfg := gateway.ConfigFromEnv()
			gw, err := gateway.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to configure gateway: %w", err)
			}

			slog.Info("Processing pairs", "concurrency", concurrency, "provider", cfg.Provider, "model", cfg.Model)
			started := time.Now()
			results, err := batch.Run(cmd.Context(), gw, pairs, concurrency, maxUpload)
			if err != nil {
				return err
			}

			out := &batch.Results{
				Config: batch.Config{
					Provider:    cfg.Provider,
					Model:       cfg.Model,
					Temperature: cfg.Temperature,
					DatasetPath: datasetPath,
					Concurrency: concurrency,
				},
				Summary: batch.Summarize(results),
				Results: results,
			}

			path, err := batch.SaveYAML(out, outputDir)
			if err != nil {
				return fmt.Errorf("failed to save results: %w", err)
			}

			batch.WriteSummary(cmd.OutOrStdout(), out.Summary)
			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s (%s)\n", path, time.Since(started).Round(time.Second))
			fmt.Fprintf(cmd.OutOrStdout(), "\nGenerate detailed report with:\n  inkrhythm batch report --results %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a .jsonl or .parquet dataset (required)")
	cmd.Flags().StringVar(&outputDir, "output", "evals", "Directory for the results YAML")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Number of appraisals in flight")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", intake.DefaultMaxBytes, "Maximum image size in bytes")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func newBatchReportCmd() *cobra.Command {
	var (
		resultsPath string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report from saved batch results",
		Example: `  inkrhythm batch report --results evals/batch_2026-10-19_10-00-00.yaml
  inkrhythm batch report --results evals/batch_2026-10-19_10-00-00.yaml --format csv > scores.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(resultsPath); err != nil {
				return fmt.Errorf("results file not found: %s", resultsPath)
			}

			results, err := batch.LoadYAML(resultsPath)
			if err != nil {
				return fmt.Errorf("failed to load results: %w", err)
			}
			return batch.WriteReport(cmd.OutOrStdout(), results, format)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Path to a results YAML written by batch run (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv)")

	_ = cmd.MarkFlagRequired("results")
	return cmd
}
