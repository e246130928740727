// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the configuration structs shared across pipeline stages.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "reporter-el/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the bounded fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Permits is the maximum number of concurrently in-flight downloads (default 3).
	Permits int `json:"permits" yaml:"permits"`

	// Pace is the minimum spacing between request starts within the permit
	// pool (default 1s). Negative disables pacing.
	Pace time.Duration `json:"pace" yaml:"pace"`

	// MaxAttempts is the total number of request attempts per URL, first try
	// included (default 10).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryDelay is the fixed delay between attempts (default 1s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// LakeConfig holds settings for the output blob store.
type LakeConfig struct {
	// URL selects the bucket: a gocloud.dev URL such as "gs://bucket" or
	// "mem://", or a plain local directory path.
	URL string `json:"url" yaml:"url"`

	// Prefix is the key prefix under which tables are published (default "data_lake/").
	Prefix string `json:"prefix" yaml:"prefix"`
}

// PipelineConfig holds settings common to the fetch-extract-publish pipelines.
type PipelineConfig struct {
	Fetch FetchConfig `json:"fetch" yaml:"fetch"`
	Lake  LakeConfig  `json:"lake" yaml:"lake"`

	// StagingDir receives raw downloads before decompression.
	StagingDir string `json:"staging_dir" yaml:"staging_dir"`

	// ExtractedDir receives decompressed documents.
	ExtractedDir string `json:"extracted_dir" yaml:"extracted_dir"`

	// ManifestPath is the SQLite run-manifest location. Empty disables the manifest.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`

	// Force reprocesses units whose output already exists in the lake.
	Force bool `json:"force" yaml:"force"`
}

// PubMedConfig holds settings for the PubMed baseline pipeline.
type PubMedConfig struct {
	PipelineConfig `yaml:",inline"`

	// BaseURL is the baseline directory index
	// (default "https://ftp.ncbi.nlm.nih.gov/pubmed/baseline/").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is an optional NCBI API key attached to requests for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxFiles limits how many baseline segments are processed (0 = all).
	MaxFiles int `json:"max_files" yaml:"max_files"`
}

// ReporterConfig holds settings for the NIH RePORTER pipeline.
type ReporterConfig struct {
	PipelineConfig `yaml:",inline"`

	// Categories are the exporter data categories to download
	// (projects, abstracts, publications, linktables).
	Categories []string `json:"categories" yaml:"categories"`

	// Years are the fiscal years to download.
	Years []int `json:"years" yaml:"years"`
}

// SocialConfig holds settings for the bioRxiv social-impact fetch.
type SocialConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the bioRxiv details endpoint; the DOI is appended.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Delay is the pause between consecutive DOI fetches (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}
