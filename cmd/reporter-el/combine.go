// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/lake"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/pubmed"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Merge per-segment PMID-to-DOI tables into one deduplicated table",
	Long: `Combine reads every per-segment link table under the lake prefix,
deduplicates the (PMID, DOI) pairs, drops rows whose PMID is not an
integer (PubMed sentinel values like NOT_FOUND), and writes a single
combined parquet table back to the lake.`,
	RunE: runCombine,
}

func init() {
	combineCmd.Flags().String("lake", "data_lake", "lake bucket URL or local directory")
	combineCmd.Flags().String("prefix", "data_lake/", "lake key prefix holding the per-segment tables")
	combineCmd.Flags().String("out", "combined/pmid_doi.parquet", "lake key for the combined table")

	rootCmd.AddCommand(combineCmd)
}

func runCombine(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	lakeURL, _ := cmd.Flags().GetString("lake")
	if !cmd.Flags().Changed("lake") && viper.GetString("lake.url") != "" {
		lakeURL = viper.GetString("lake.url")
	}
	prefix, _ := cmd.Flags().GetString("prefix")
	if !cmd.Flags().Changed("prefix") && viper.GetString("lake.prefix") != "" {
		prefix = viper.GetString("lake.prefix")
	}
	outKey, _ := cmd.Flags().GetString("out")

	l, err := lake.Open(ctx, lakeURL)
	if err != nil {
		return err
	}
	defer l.Close()

	rows, err := pubmed.Combine(ctx, l, prefix, outKey, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("combined table: %s (%d rows)\n", outKey, rows)
	return nil
}
