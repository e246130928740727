// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/fetch"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/lake"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/manifest"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/pipeline"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/pkg/types"
)

// runBatch wires a configured orchestrator and drives units through it.
// It returns an error when any unit fails, so the process exit code
// reflects the batch outcome.
func runBatch(ctx context.Context, cfg types.PipelineConfig, units []pipeline.WorkUnit,
	decompress pipeline.DecompressFunc, extract pipeline.ExtractFunc) error {

	if len(units) == 0 {
		return fmt.Errorf("no work units to process")
	}

	l, err := lake.Open(ctx, cfg.Lake.URL)
	if err != nil {
		return err
	}
	defer l.Close()

	var recorder pipeline.Recorder
	if cfg.ManifestPath != "" {
		store, err := manifest.Open(cfg.ManifestPath)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	client := &http.Client{Timeout: cfg.Fetch.Timeout}
	orch := &pipeline.Orchestrator{
		Fetcher:      fetch.New(client, cfg.Fetch),
		Sink:         l,
		Recorder:     recorder,
		Decompress:   decompress,
		Extract:      extract,
		StagingDir:   cfg.StagingDir,
		ExtractedDir: cfg.ExtractedDir,
		Prefix:       cfg.Lake.Prefix,
		Force:        cfg.Force,
		Out:          os.Stdout,
	}

	result := orch.Run(ctx, units)
	if result.HasFailures() {
		return fmt.Errorf("%d unit(s) failed", result.Failed)
	}
	return nil
}
