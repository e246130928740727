// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/reporter"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/pkg/types"
)

var reporterCmd = &cobra.Command{
	Use:   "reporter",
	Short: "Load NIH RePORTER exporter archives into the lake",
	Long: `Reporter downloads zipped CSV archives from the NIH RePORTER exporter
for each requested category and fiscal year, decodes the latin-1 CSV,
and publishes one parquet table per category-year to the lake.
Archives already in the lake are skipped.`,
	RunE: runReporter,
}

func init() {
	addPipelineFlags(reporterCmd)
	reporterCmd.Flags().StringSlice("categories", reporter.Categories,
		"exporter categories to download (projects, abstracts, publications, linktables)")
	reporterCmd.Flags().IntSlice("years", nil, "fiscal years to download (required)")

	rootCmd.AddCommand(reporterCmd)
}

func runReporter(cmd *cobra.Command, args []string) error {
	categories, _ := cmd.Flags().GetStringSlice("categories")
	years, _ := cmd.Flags().GetIntSlice("years")
	if len(years) == 0 {
		years = viper.GetIntSlice("reporter.years")
	}
	if len(years) == 0 {
		return fmt.Errorf("provide at least one fiscal year via --years")
	}

	cfg := types.ReporterConfig{
		PipelineConfig: pipelineConfigFromFlags(cmd),
		Categories:     categories,
		Years:          years,
	}

	units, err := reporter.Units(cfg.Categories, cfg.Years)
	if err != nil {
		return err
	}

	return runBatch(cmd.Context(), cfg.PipelineConfig, units, reporter.UnzipCSV, reporter.TableBytes)
}
