// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Gunzip decompresses the gzip file at src into dstDir, dropping the ".gz"
// suffix from the file name, and returns the extracted path.
func Gunzip(src, dstDir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("pipeline: opening %s: %w", src, err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return "", fmt.Errorf("pipeline: reading gzip header of %s: %w", src, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("pipeline: creating %s: %w", dstDir, err)
	}

	dst := filepath.Join(dstDir, strings.TrimSuffix(filepath.Base(src), ".gz"))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("pipeline: creating %s: %w", dst, err)
	}

	_, copyErr := io.Copy(out, gz)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(dst)
		return "", fmt.Errorf("pipeline: decompressing %s: %w", src, copyErr)
	}
	if closeErr != nil {
		os.Remove(dst)
		return "", fmt.Errorf("pipeline: closing %s: %w", dst, closeErr)
	}
	return dst, nil
}
