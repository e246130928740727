// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/pkg/types"
)

// testConfig returns a fetch config with pacing disabled and a tiny retry
// delay so tests finish quickly.
func testConfig(permits, attempts int) types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig:  types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "reporter-el-test/0.1"},
		Permits:     permits,
		Pace:        -1,
		MaxAttempts: attempts,
		RetryDelay:  time.Millisecond,
	}
}

func TestNewDefaultsToPacing(t *testing.T) {
	f := New(http.DefaultClient, types.FetchConfig{})
	assert.NotNil(t, f.limiter, "zero config must pace requests")
	assert.Equal(t, rate.Every(time.Second), f.limiter.Limit())

	f = New(http.DefaultClient, types.FetchConfig{Pace: -1})
	assert.Nil(t, f.limiter, "negative pace must disable pacing")
}

func TestFetchPacesRequestStarts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	cfg := testConfig(3, 10)
	cfg.Pace = 50 * time.Millisecond
	f := New(ts.Client(), cfg)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), ts.URL)
		require.NoError(t, err)
	}
	// The first request gets the initial token; the next two each wait one
	// pacing interval.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond,
		"three paced fetches finished too quickly")
}

func TestFetchSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "payload")
	}))
	defer ts.Close()

	f := New(ts.Client(), testConfig(3, 10))
	data, err := f.Fetch(context.Background(), ts.URL+"/file.xml.gz")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 5 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "eventually")
	}))
	defer ts.Close()

	f := New(ts.Client(), testConfig(3, 10))
	data, err := f.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "eventually", string(data))
	// 5 failures then 1 success.
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

func TestFetchExhaustsAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	f := New(ts.Client(), testConfig(1, 10))
	_, err := f.Fetch(context.Background(), ts.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	// MaxAttempts counts total requests: exactly 10, not 11.
	assert.Equal(t, int32(10), atomic.LoadInt32(&calls))

	// The permit must be free again after exhaustion.
	require.True(t, f.sem.TryAcquire(1), "permit leaked after exhausted retries")
	f.sem.Release(1)
}

func TestFetchPermitReleasedOnSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	f := New(ts.Client(), testConfig(2, 10))
	for i := 0; i < 5; i++ {
		_, err := f.Fetch(context.Background(), ts.URL)
		require.NoError(t, err)
	}
	require.True(t, f.sem.TryAcquire(2), "pool not back to full occupancy")
	f.sem.Release(2)
}

func TestFetchOccupancyNeverExceedsPermits(t *testing.T) {
	const permits = 3
	var inFlight, maxInFlight int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if n <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	f := New(ts.Client(), testConfig(permits, 10))

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Fetch(context.Background(), ts.URL)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(permits),
		"observed %d concurrent requests with %d permits", maxInFlight, permits)
}

func TestFetchContextCancelledDuringRetryWait(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cfg := testConfig(1, 10)
	cfg.RetryDelay = time.Second
	f := New(ts.Client(), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, ts.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.True(t, f.sem.TryAcquire(1), "permit leaked after cancellation")
	f.sem.Release(1)
}

func TestFetchToFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "file body")
	}))
	defer ts.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "staging", "pubmed23n0001.xml.gz")

	f := New(ts.Client(), testConfig(1, 10))
	require.NoError(t, f.FetchToFile(context.Background(), ts.URL+"/pubmed23n0001.xml.gz", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"baseline segment", "https://ftp.ncbi.nlm.nih.gov/pubmed/baseline/pubmed23n0001.xml.gz", "pubmed23n0001.xml.gz", false},
		{"exporter download", "https://reporter.nih.gov/exporter/projects/download/2020", "2020", false},
		{"trailing slash", "https://example.com/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FileName(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
