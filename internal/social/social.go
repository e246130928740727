// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package social fetches bioRxiv social-media impact records for DOIs.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/pkg/types"
)

// utf8BOM is the byte-order mark some bioRxiv responses are prefixed with.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize strips the UTF-8 BOM and any wrapping parentheses from a raw
// response body. The endpoint serves JSONP-style payloads like "(json)".
func Normalize(raw []byte) []byte {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	raw = bytes.TrimSpace(raw)
	raw = bytes.TrimPrefix(raw, []byte("("))
	raw = bytes.TrimSuffix(raw, []byte(")"))
	return bytes.TrimSpace(raw)
}

// FetchImpact retrieves the social-impact record for doi from baseURL+doi and
// returns the normalized JSON document. A payload that is not valid JSON
// after normalization is an error.
func FetchImpact(ctx context.Context, client *http.Client, cfg types.SocialConfig, doi string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+doi, nil)
	if err != nil {
		return nil, fmt.Errorf("social: creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("social: fetching %s: %w", doi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("social: HTTP %d for %s", resp.StatusCode, doi)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("social: reading body: %w", err)
	}

	doc := Normalize(raw)
	if !json.Valid(doc) {
		return nil, fmt.Errorf("social: response for %s is not valid JSON", doi)
	}
	return json.RawMessage(doc), nil
}

// Slug turns a DOI into a lake-safe key segment: slashes become dashes.
func Slug(doi string) string {
	return strings.ReplaceAll(strings.TrimSpace(doi), "/", "-")
}

// Key returns the lake key for a DOI's social-impact document.
func Key(doi string) string {
	return "social/" + Slug(doi) + ".json"
}

// Sink is the store impact documents are written to. A lake.Lake satisfies
// it; tests substitute failing fakes.
type Sink interface {
	Exists(ctx context.Context, key string) (bool, error)
	WriteAll(ctx context.Context, key string, data []byte) error
}

// Result summarizes a batch of DOI fetches.
type Result struct {
	Stored  int
	Skipped int
	Failed  int
}

// HasFailures reports whether any DOI failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// FetchBatch fetches the impact record for each DOI in order, pausing
// cfg.Delay between requests (default 1s), and stores the documents in the
// sink. DOIs whose document already exists are skipped unless force is set.
// A fetch or sink error fails that DOI only; the batch continues. The
// returned error is non-nil only when ctx ends.
func FetchBatch(ctx context.Context, client *http.Client, cfg types.SocialConfig, sink Sink,
	dois []string, force bool, w io.Writer) (Result, error) {

	delay := cfg.Delay
	if delay <= 0 {
		delay = time.Second
	}

	var res Result
	fail := func(doi string, err error) {
		res.Failed++
		fmt.Fprintf(w, "failed:  %s (%v)\n", doi, err)
	}

	for i, doi := range dois {
		if i > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(delay):
			}
		}

		key := Key(doi)
		exists, err := sink.Exists(ctx, key)
		if err != nil {
			fail(doi, err)
			continue
		}
		if exists && !force {
			res.Skipped++
			fmt.Fprintf(w, "skipped: %s (already in lake)\n", doi)
			continue
		}

		doc, err := FetchImpact(ctx, client, cfg, doi)
		if err != nil {
			fail(doi, err)
			continue
		}
		if err := sink.WriteAll(ctx, key, doc); err != nil {
			fail(doi, err)
			continue
		}
		res.Stored++
		fmt.Fprintf(w, "stored:  %s -> %s\n", doi, key)
	}

	fmt.Fprintf(w, "\nBatch summary: %d stored, %d skipped, %d failed\n",
		res.Stored, res.Skipped, res.Failed)
	return res, nil
}
