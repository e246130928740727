// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences fetch, decompress, extract, publish, and
// cleanup for batches of remotely hosted data files.
package pipeline

import (
	"net/url"
	"path"
	"strings"
)

// Status is the processing state of one work unit.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFetched   Status = "fetched"
	StatusExtracted Status = "extracted"
	StatusPublished Status = "published"
	StatusCleaned   Status = "cleaned"

	// StatusSkipped is terminal: the output already exists in the lake and no
	// forced refresh was requested.
	StatusSkipped Status = "skipped"

	// StatusFailed is terminal: some stage failed; earlier stages' files are
	// left in place for inspection.
	StatusFailed Status = "failed"
)

// WorkUnit identifies one remotely hosted resource to process.
type WorkUnit struct {
	// Name identifies the unit in logs and the run manifest.
	Name string

	// URL is the source to download.
	URL string

	// File overrides the staging file name. Empty means the final URL path
	// segment.
	File string
}

// StagingName returns the local file name for the unit's raw download.
func (u WorkUnit) StagingName() string {
	if u.File != "" {
		return u.File
	}
	parsed, err := url.Parse(u.URL)
	if err != nil {
		return u.Name
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return u.Name
	}
	return name
}

// Stem returns the unit's output name: the staging name up to the first dot.
// "pubmed23n0001.xml.gz" becomes "pubmed23n0001", "projects-2020.zip"
// becomes "projects-2020".
func (u WorkUnit) Stem() string {
	stem, _, _ := strings.Cut(u.StagingName(), ".")
	return stem
}

// Outcome records how one work unit ended.
type Outcome struct {
	Unit   WorkUnit
	Status Status
	Rows   int
	Err    error
}
