// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/lake"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/social"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/pkg/types"
)

const defaultSocialBaseURL = "https://api.biorxiv.org/details/biorxiv/"

var socialCmd = &cobra.Command{
	Use:   "social [dois...]",
	Short: "Fetch bioRxiv social-impact records for DOIs",
	Long: `Social fetches the bioRxiv social-media impact record for each DOI and
stores the normalized JSON document in the lake under social/. DOIs whose
document is already present are skipped. Requests run sequentially with a
fixed delay between them.`,
	RunE: runSocial,
}

func init() {
	socialCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	socialCmd.Flags().Duration("delay", 0, "delay between consecutive DOI fetches (default 1s)")
	socialCmd.Flags().String("base-url", defaultSocialBaseURL, "bioRxiv details endpoint; the DOI is appended")
	socialCmd.Flags().String("lake", "data_lake", "lake bucket URL or local directory")
	socialCmd.Flags().Bool("force", false, "refetch DOIs already in the lake")

	rootCmd.AddCommand(socialCmd)
}

func runSocial(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more DOIs")
	}
	ctx := cmd.Context()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	baseURL, _ := cmd.Flags().GetString("base-url")
	lakeURL, _ := cmd.Flags().GetString("lake")
	force, _ := cmd.Flags().GetBool("force")

	cfg := types.SocialConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: userAgentFromConfig(),
		},
		BaseURL: baseURL,
		Delay:   delay,
	}

	l, err := lake.Open(ctx, lakeURL)
	if err != nil {
		return err
	}
	defer l.Close()

	client := &http.Client{Timeout: cfg.Timeout}
	result, err := social.FetchBatch(ctx, client, cfg, l, args, force, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d DOI(s) failed", result.Failed)
	}
	return nil
}
