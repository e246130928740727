// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lake wraps a gocloud.dev blob bucket as the pipeline output store.
//
// The pipelines depend only on existence checks, whole-object writes and
// reads, listing, and deletion. Authentication and bucket naming are the
// driver's concern: "gs://bucket" targets Google Cloud Storage, "mem://"
// an in-memory bucket, and anything without a scheme a local directory.
package lake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
)

// Lake is a thin wrapper around a blob bucket.
type Lake struct {
	bucket *blob.Bucket
}

// Open opens the bucket named by urlstr. A string without a scheme is
// treated as a local directory and created if absent.
func Open(ctx context.Context, urlstr string) (*Lake, error) {
	if !strings.Contains(urlstr, "://") {
		if err := os.MkdirAll(urlstr, 0o755); err != nil {
			return nil, fmt.Errorf("creating lake directory %s: %w", urlstr, err)
		}
		bucket, err := fileblob.OpenBucket(urlstr, nil)
		if err != nil {
			return nil, fmt.Errorf("opening local lake %s: %w", urlstr, err)
		}
		return &Lake{bucket: bucket}, nil
	}

	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, fmt.Errorf("opening lake %s: %w", urlstr, err)
	}
	return &Lake{bucket: bucket}, nil
}

// NewFromBucket wraps an already-open bucket; the caller keeps ownership of
// closing it through the returned Lake.
func NewFromBucket(bucket *blob.Bucket) *Lake {
	return &Lake{bucket: bucket}
}

// Exists reports whether key is present in the lake.
func (l *Lake) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := l.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return ok, nil
}

// WriteAll stores data under key, replacing any existing object.
func (l *Lake) WriteAll(ctx context.Context, key string, data []byte) error {
	if err := l.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// ReadAll returns the full content stored under key.
func (l *Lake) ReadAll(ctx context.Context, key string) ([]byte, error) {
	data, err := l.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Upload copies the local file at path into the lake under key.
func (l *Lake) Upload(ctx context.Context, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return l.WriteAll(ctx, key, data)
}

// Delete removes key from the lake.
func (l *Lake) Delete(ctx context.Context, key string) error {
	if err := l.bucket.Delete(ctx, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// List returns the keys under prefix in lexical order.
func (l *Lake) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := l.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", prefix, err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Close releases the underlying bucket.
func (l *Lake) Close() error {
	return l.bucket.Close()
}
