// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/fetch"
)

// Sink is the output store the orchestrator publishes tables to. A lake.Lake
// satisfies it; tests substitute failing fakes.
type Sink interface {
	Exists(ctx context.Context, key string) (bool, error)
	WriteAll(ctx context.Context, key string, data []byte) error
}

// Recorder receives one record per finished work unit. Optional.
type Recorder interface {
	Record(ctx context.Context, out Outcome, started, finished time.Time) error
}

// DecompressFunc unpacks a staged download into dstDir and returns the
// extracted file path. Nil means the staged file is extracted directly.
type DecompressFunc func(src, dstDir string) (string, error)

// ExtractFunc turns a decompressed document into an encoded table and a row
// count.
type ExtractFunc func(path string) (data []byte, rows int, err error)

// Meta is the sidecar record published next to each table.
type Meta struct {
	Name      string    `yaml:"name"`
	SourceURL string    `yaml:"source_url"`
	Rows      int       `yaml:"rows"`
	FetchedAt time.Time `yaml:"fetched_at"`
}

// Result summarizes a batch run.
type Result struct {
	Outcomes  []Outcome
	Published int
	Skipped   int
	Failed    int
}

// Total returns the number of work units processed.
func (r Result) Total() int {
	return r.Published + r.Skipped + r.Failed
}

// HasFailures reports whether any unit failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Orchestrator drives work units through fetch, decompress, extract,
// publish, and cleanup.
type Orchestrator struct {
	// Fetcher performs the bounded downloads.
	Fetcher *fetch.Fetcher

	// Sink receives published tables and answers presence checks.
	Sink Sink

	// Recorder, when non-nil, receives one record per finished unit.
	Recorder Recorder

	// Decompress unpacks staged downloads. Nil skips the step.
	Decompress DecompressFunc

	// Extract builds the table for one decompressed document.
	Extract ExtractFunc

	// StagingDir and ExtractedDir hold transient files during processing.
	StagingDir   string
	ExtractedDir string

	// Prefix is the sink key prefix for published tables (default "data_lake/").
	Prefix string

	// Force reprocesses units whose table already exists in the sink.
	Force bool

	// Out receives one progress line per unit outcome.
	Out io.Writer
}

// Run drives every unit through the state machine. Units run concurrently;
// the fetcher's permit pool is the only cross-unit bound. A unit's failure
// never aborts the batch. Outcomes are returned in input order.
func (o *Orchestrator) Run(ctx context.Context, units []WorkUnit) Result {
	out := o.Out
	if out == nil {
		out = io.Discard
	}

	outcomes := make([]Outcome, len(units))
	var wg sync.WaitGroup
	for i, unit := range units {
		wg.Add(1)
		go func(i int, unit WorkUnit) {
			defer wg.Done()
			started := time.Now().UTC()
			oc := o.process(ctx, unit)
			finished := time.Now().UTC()
			outcomes[i] = oc

			if o.Recorder != nil {
				if err := o.Recorder.Record(ctx, oc, started, finished); err != nil {
					fmt.Fprintf(out, "warning: recording %s: %v\n", unit.Name, err)
				}
			}
		}(i, unit)
	}
	wg.Wait()

	var result Result
	result.Outcomes = outcomes
	for _, oc := range outcomes {
		switch oc.Status {
		case StatusSkipped:
			result.Skipped++
			fmt.Fprintf(out, "skipped: %s (already in lake)\n", oc.Unit.Name)
		case StatusFailed:
			result.Failed++
			fmt.Fprintf(out, "failed:  %s (%v)\n", oc.Unit.Name, oc.Err)
		default:
			result.Published++
			fmt.Fprintf(out, "cleaned: %s (%d rows)\n", oc.Unit.Name, oc.Rows)
		}
	}
	fmt.Fprintf(out, "\nBatch summary: %d published, %d skipped, %d failed (total: %d)\n",
		result.Published, result.Skipped, result.Failed, result.Total())
	return result
}

// process runs one unit through the state machine:
// pending -> fetched -> extracted -> published -> cleaned, with terminal
// skipped and failed states.
func (o *Orchestrator) process(ctx context.Context, unit WorkUnit) Outcome {
	prefix := o.Prefix
	if prefix == "" {
		prefix = "data_lake/"
	}
	tableKey := prefix + unit.Stem() + ".parquet"
	metaKey := prefix + unit.Stem() + ".yaml"

	// Presence check, fail-closed: an unreachable sink is a unit failure,
	// never an assumed absence.
	exists, err := o.Sink.Exists(ctx, tableKey)
	if err != nil {
		return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("presence check: %w", err)}
	}
	if exists && !o.Force {
		return Outcome{Unit: unit, Status: StatusSkipped}
	}

	// Fetch to staging.
	staged := filepath.Join(o.StagingDir, unit.StagingName())
	if err := o.Fetcher.FetchToFile(ctx, unit.URL, staged); err != nil {
		return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("fetch: %w", err)}
	}

	// Decompress.
	doc := staged
	if o.Decompress != nil {
		doc, err = o.Decompress(staged, o.ExtractedDir)
		if err != nil {
			return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("decompress: %w", err)}
		}
	}

	// Extract.
	data, rows, err := o.Extract(doc)
	if err != nil {
		return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("extract: %w", err)}
	}

	// Publish the table, then its sidecar metadata.
	if err := o.Sink.WriteAll(ctx, tableKey, data); err != nil {
		return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("publish: %w", err)}
	}
	meta := Meta{Name: unit.Name, SourceURL: unit.URL, Rows: rows, FetchedAt: time.Now().UTC()}
	metaBytes, err := yaml.Marshal(meta)
	if err != nil {
		return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("encoding metadata: %w", err)}
	}
	if err := o.Sink.WriteAll(ctx, metaKey, metaBytes); err != nil {
		return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("publish metadata: %w", err)}
	}

	// Cleanup runs only after a successful publish; on failure the staged and
	// extracted files stay behind for inspection.
	if err := os.Remove(staged); err != nil {
		return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("cleanup: %w", err)}
	}
	if doc != staged {
		if err := os.Remove(doc); err != nil {
			return Outcome{Unit: unit, Status: StatusFailed, Err: fmt.Errorf("cleanup: %w", err)}
		}
	}

	return Outcome{Unit: unit, Status: StatusCleaned, Rows: rows}
}
