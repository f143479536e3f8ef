// Command seedlab converts a lab results workbook into a SQL seed file.
// The first sheet needs JobNumber, PlantSource, ProductionDate and SampleId
// columns; DateReported, Time and element columns are optional.
// Usage: go run ./cmd/seedlab --in results.xlsx
// Output: db/seeds/lab_results.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"assaylab/internal/seed"
)

func main() {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:          "seedlab",
		Short:        "Convert a lab results workbook into a SQL seed file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(inPath, outPath)
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "Path to the .xlsx workbook")
	cmd.Flags().StringVar(&outPath, "out", "db/seeds/lab_results.sql", "Path of the generated SQL file")
	_ = cmd.MarkFlagRequired("in")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(inPath, outPath string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = in.Close() }()

	samples, warnings, err := seed.ReadWorkbook(in)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if err := seed.WriteSQL(out, samples); err != nil {
		return fmt.Errorf("write seed file: %w", err)
	}

	logger.Info().Int("samples", len(samples)).Int("skipped_or_partial", len(warnings)).Str("out", outPath).Msg("seed file generated")
	return nil
}
