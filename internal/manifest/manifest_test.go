// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	finished := started.Add(30 * time.Second)

	outcomes := []pipeline.Outcome{
		{Unit: pipeline.WorkUnit{Name: "u1", URL: "https://example.com/a.gz"}, Status: pipeline.StatusCleaned, Rows: 10},
		{Unit: pipeline.WorkUnit{Name: "u2", URL: "https://example.com/b.gz"}, Status: pipeline.StatusFailed, Err: errors.New("boom")},
		{Unit: pipeline.WorkUnit{Name: "u3", URL: "https://example.com/c.gz"}, Status: pipeline.StatusSkipped},
	}
	for _, out := range outcomes {
		require.NoError(t, s.Record(ctx, out, started, finished))
	}

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Newest first.
	assert.Equal(t, "u3", runs[0].Unit)
	assert.Equal(t, pipeline.StatusSkipped, runs[0].Status)
	assert.Equal(t, "u2", runs[1].Unit)
	assert.Equal(t, "boom", runs[1].Error)
	assert.Equal(t, "u1", runs[2].Unit)
	assert.Equal(t, 10, runs[2].Rows)
	assert.True(t, runs[2].StartedAt.Equal(started))
	assert.True(t, runs[2].FinishedAt.Equal(finished))
}

func TestFailureCount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record(ctx, pipeline.Outcome{
			Unit:   pipeline.WorkUnit{Name: "f"},
			Status: pipeline.StatusFailed,
			Err:    errors.New("x"),
		}, now, now))
	}
	require.NoError(t, s.Record(ctx, pipeline.Outcome{
		Unit:   pipeline.WorkUnit{Name: "ok"},
		Status: pipeline.StatusCleaned,
	}, now, now))

	n, err := s.FailureCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, pipeline.Outcome{
			Unit:   pipeline.WorkUnit{Name: "u"},
			Status: pipeline.StatusCleaned,
		}, now, now))
	}

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
