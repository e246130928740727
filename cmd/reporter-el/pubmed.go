// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/fetch"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/pipeline"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/pubmed"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/pkg/types"
)

const defaultPubMedBaseURL = "https://ftp.ncbi.nlm.nih.gov/pubmed/baseline/"

var pubmedCmd = &cobra.Command{
	Use:   "pubmed [urls...]",
	Short: "Build PMID-to-DOI link tables from PubMed baseline segments",
	Long: `Pubmed downloads gzipped PubMed baseline XML segments, streams each one
for (PMID, DOI) article-identifier pairs, and publishes one parquet table
per segment to the lake. With no arguments the segment list is discovered
from the baseline directory index; explicit segment URLs can be given
instead. Segments already in the lake are skipped.`,
	RunE: runPubMed,
}

func init() {
	addPipelineFlags(pubmedCmd)
	pubmedCmd.Flags().String("base-url", defaultPubMedBaseURL, "baseline directory index URL")
	pubmedCmd.Flags().Int("max-files", 0, "process at most this many segments (0 = all)")
	pubmedCmd.Flags().String("api-key", "", "NCBI API key (default: .secrets/ncbi-api-key)")

	rootCmd.AddCommand(pubmedCmd)
}

func runPubMed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	baseURL, _ := cmd.Flags().GetString("base-url")
	maxFiles, _ := cmd.Flags().GetInt("max-files")
	apiKey, _ := cmd.Flags().GetString("api-key")

	cfg := types.PubMedConfig{
		PipelineConfig: pipelineConfigFromFlags(cmd),
		BaseURL:        baseURL,
		APIKey:         secretDefault("ncbi-api-key", apiKey),
		MaxFiles:       maxFiles,
	}

	urls := args
	if len(urls) == 0 {
		client := &http.Client{Timeout: cfg.Fetch.Timeout}
		var err error
		urls, err = fetch.ListLinks(ctx, client, cfg.BaseURL, ".xml.gz")
		if err != nil {
			return fmt.Errorf("listing baseline segments: %w", err)
		}
	}
	if cfg.MaxFiles > 0 && len(urls) > cfg.MaxFiles {
		urls = urls[:cfg.MaxFiles]
	}

	units := make([]pipeline.WorkUnit, 0, len(urls))
	for _, u := range urls {
		name, err := fetch.FileName(u)
		if err != nil {
			return err
		}
		units = append(units, pipeline.WorkUnit{
			Name: name,
			URL:  withAPIKey(u, cfg.APIKey),
			File: name,
		})
	}

	return runBatch(ctx, cfg.PipelineConfig, units, pipeline.Gunzip, pubmed.TableBytes)
}

// withAPIKey appends the NCBI api_key query parameter when a key is set.
func withAPIKey(rawURL, key string) string {
	if key == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("api_key", key)
	u.RawQuery = q.Encode()
	return u.String()
}
