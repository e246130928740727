// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/lake"
)

// CombinedRecord is one row of the merged link table, with PMID promoted to
// an integer column.
type CombinedRecord struct {
	PMID int64  `parquet:"PMID"`
	DOI  string `parquet:"DOI"`
}

// Combine merges every per-segment link table under prefix into a single
// deduplicated parquet table stored at outKey. Duplicate (PMID, DOI) pairs
// are dropped, as are rows whose PMID does not parse as an integer (the
// source data uses sentinel strings such as "NOT_FOUND;INVALID_JOURNAL").
// Returns the number of rows written.
func Combine(ctx context.Context, l *lake.Lake, prefix, outKey string, w io.Writer) (int, error) {
	keys, err := l.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("pubmed: listing link tables: %w", err)
	}

	seen := make(map[Record]bool)
	var combined []CombinedRecord
	tables := 0
	for _, key := range keys {
		if !strings.HasSuffix(key, ".parquet") || key == outKey {
			continue
		}
		data, err := l.ReadAll(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("pubmed: reading %s: %w", key, err)
		}
		records, err := ReadTable(data)
		if err != nil {
			return 0, fmt.Errorf("pubmed: decoding %s: %w", key, err)
		}
		tables++

		for _, rec := range records {
			if seen[rec] {
				continue
			}
			seen[rec] = true

			pmid, err := strconv.ParseInt(strings.TrimSpace(rec.PMID), 10, 64)
			if err != nil {
				fmt.Fprintf(w, "dropping non-numeric PMID %q\n", rec.PMID)
				continue
			}
			combined = append(combined, CombinedRecord{PMID: pmid, DOI: rec.DOI})
		}
	}

	if tables == 0 {
		return 0, fmt.Errorf("pubmed: no link tables under %s", prefix)
	}

	var buf bytes.Buffer
	if err := parquet.Write(&buf, combined); err != nil {
		return 0, fmt.Errorf("pubmed: writing combined table: %w", err)
	}
	if err := l.WriteAll(ctx, outKey, buf.Bytes()); err != nil {
		return 0, err
	}

	fmt.Fprintf(w, "combined %d link tables into %s (%d rows)\n", tables, outKey, len(combined))
	return len(combined), nil
}
