// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "reporter-el/0.1"
)

// userAgentFromConfig returns the configured User-Agent, falling back to the
// built-in default.
func userAgentFromConfig() string {
	if ua := viper.GetString("fetch.user_agent"); ua != "" {
		return ua
	}
	return defaultUserAgent
}

// addPipelineFlags registers the flags shared by the fetch-extract-publish
// subcommands (pubmed, reporter).
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	cmd.Flags().Int("permits", 0, "maximum concurrent downloads (default 3)")
	cmd.Flags().Duration("pace", 0, "minimum spacing between request starts (default 1s)")
	cmd.Flags().Int("max-attempts", 0, "total request attempts per URL (default 10)")
	cmd.Flags().Duration("retry-delay", 0, "delay between retry attempts (default 1s)")
	cmd.Flags().String("staging-dir", "staging", "directory for raw downloads")
	cmd.Flags().String("extracted-dir", "extracted", "directory for decompressed documents")
	cmd.Flags().String("lake", "data_lake", "lake bucket URL or local directory")
	cmd.Flags().String("prefix", "data_lake/", "lake key prefix for published tables")
	cmd.Flags().String("manifest", "manifest.db", "SQLite run-manifest path (empty disables)")
	cmd.Flags().Bool("force", false, "reprocess units whose output already exists")
}

// pipelineConfigFromFlags builds a PipelineConfig from the shared flags,
// letting config-file values fill in anything left at its zero default.
func pipelineConfigFromFlags(cmd *cobra.Command) types.PipelineConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("fetch.timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}

	permits, _ := cmd.Flags().GetInt("permits")
	if permits == 0 {
		permits = viper.GetInt("fetch.permits")
	}
	pace, _ := cmd.Flags().GetDuration("pace")
	if pace == 0 {
		pace = viper.GetDuration("fetch.pace")
	}
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	if maxAttempts == 0 {
		maxAttempts = viper.GetInt("fetch.max_attempts")
	}
	retryDelay, _ := cmd.Flags().GetDuration("retry-delay")
	if retryDelay == 0 {
		retryDelay = viper.GetDuration("fetch.retry_delay")
	}
	userAgent := userAgentFromConfig()

	stagingDir, _ := cmd.Flags().GetString("staging-dir")
	extractedDir, _ := cmd.Flags().GetString("extracted-dir")
	lakeURL, _ := cmd.Flags().GetString("lake")
	if !cmd.Flags().Changed("lake") && viper.GetString("lake.url") != "" {
		lakeURL = viper.GetString("lake.url")
	}
	prefix, _ := cmd.Flags().GetString("prefix")
	if !cmd.Flags().Changed("prefix") && viper.GetString("lake.prefix") != "" {
		prefix = viper.GetString("lake.prefix")
	}
	manifestPath, _ := cmd.Flags().GetString("manifest")
	force, _ := cmd.Flags().GetBool("force")

	return types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: userAgent,
			},
			Permits:     permits,
			Pace:        pace,
			MaxAttempts: maxAttempts,
			RetryDelay:  retryDelay,
		},
		Lake: types.LakeConfig{
			URL:    lakeURL,
			Prefix: prefix,
		},
		StagingDir:   stagingDir,
		ExtractedDir: extractedDir,
		ManifestPath: manifestPath,
		Force:        force,
	}
}
