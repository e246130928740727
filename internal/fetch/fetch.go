// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads bulk data files under a global concurrency cap.
//
// Every download holds one permit from a fixed-size pool for its whole
// lifetime, including all retries, so at most Permits requests are in flight
// at once. A shared pacing limiter spaces out request starts so freeing a
// permit does not immediately burst the origin server.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/pkg/types"
)

// ErrAttemptsExhausted is returned when every attempt for a URL failed.
// The last transport or status error is wrapped alongside it.
var ErrAttemptsExhausted = errors.New("fetch: attempts exhausted")

const (
	defaultPermits     = 3
	defaultMaxAttempts = 10
	defaultRetryDelay  = time.Second
	defaultPace        = time.Second
)

// Fetcher performs permit-bounded HTTP downloads with bounded retry.
type Fetcher struct {
	client      *http.Client
	sem         *semaphore.Weighted
	limiter     *rate.Limiter
	userAgent   string
	maxAttempts int
	retryDelay  time.Duration
}

// New builds a Fetcher from cfg. Zero-valued fields fall back to the
// defaults: 3 permits, 10 total attempts, 1 s between attempts, 1 s pacing.
// A negative Pace disables pacing.
func New(client *http.Client, cfg types.FetchConfig) *Fetcher {
	permits := cfg.Permits
	if permits <= 0 {
		permits = defaultPermits
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	pace := cfg.Pace
	if pace == 0 {
		pace = defaultPace
	}

	var limiter *rate.Limiter
	if pace > 0 {
		limiter = rate.NewLimiter(rate.Every(pace), 1)
	}

	return &Fetcher{
		client:      client,
		sem:         semaphore.NewWeighted(int64(permits)),
		limiter:     limiter,
		userAgent:   cfg.UserAgent,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Fetch retrieves url and returns the full response body. It blocks until a
// permit is available, then issues at most MaxAttempts GET requests with a
// fixed delay between attempts. Transport errors and non-2xx statuses both
// count as failed attempts. The permit is released on every return path.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring permit: %w", err)
	}
	defer f.sem.Release(1)

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.retryDelay):
			}
		}

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		data, err := f.get(ctx, rawURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w after %d attempts for %s: %v",
		ErrAttemptsExhausted, f.maxAttempts, rawURL, lastErr)
}

// FetchToFile retrieves url and writes the body to destPath using a temp
// file renamed into place, so a partial download never shadows the target.
func (f *Fetcher) FetchToFile(ctx context.Context, rawURL, destPath string) error {
	data, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", destPath, err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// get performs a single GET attempt.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

// FileName returns the local file name for rawURL: the final segment of the
// URL path.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("no file name in URL %q", rawURL)
	}
	return name, nil
}
