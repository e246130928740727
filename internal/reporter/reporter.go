// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reporter turns NIH RePORTER exporter archives into parquet tables.
//
// The exporter serves one zip per {category, fiscal year} holding a single
// latin-1 encoded CSV. Known numeric columns are promoted to int64; values
// that do not parse stay null instead of failing the row, matching the messy
// reality of the historical exports.
package reporter

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/pipeline"
	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/table"
)

// ExporterBase is the NIH RePORTER bulk-download endpoint. Declared as a var
// so tests can substitute an httptest server.
var ExporterBase = "https://reporter.nih.gov/exporter"

// Categories are the exporter data categories, in download order.
var Categories = []string{"projects", "abstracts", "publications", "linktables"}

// int64Columns lists exporter CSV columns promoted to optional int64.
var int64Columns = map[string]bool{
	"APPLICATION_ID":         true,
	"APPLICATION_TYPE":       true,
	"CFDA_CODE":              true,
	"FY":                     true,
	"ORG_DISTRICT":           true,
	"ORG_IPF_CODE":           true,
	"SERIAL_NUMBER":          true,
	"SUBPROJECT_ID":          true,
	"SUPPORT_YEAR":           true,
	"DIRECT_COST_AMT":        true,
	"INDIRECT_COST_AMT":      true,
	"TOTAL_COST":             true,
	"TOTAL_COST_SUB_PROJECT": true,
}

// URL returns the exporter download URL for one category and fiscal year.
func URL(category string, year int) (string, error) {
	if !validCategory(category) {
		return "", fmt.Errorf("reporter: invalid category %q (valid: %s)",
			category, strings.Join(Categories, ", "))
	}
	return fmt.Sprintf("%s/%s/download/%d", ExporterBase, category, year), nil
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Units enumerates the ordered {category} x {year} cross product as work
// units. An invalid category fails before any network activity.
func Units(categories []string, years []int) ([]pipeline.WorkUnit, error) {
	var units []pipeline.WorkUnit
	for _, category := range categories {
		for _, year := range years {
			u, err := URL(category, year)
			if err != nil {
				return nil, err
			}
			units = append(units, pipeline.WorkUnit{
				Name: fmt.Sprintf("%s-%d", category, year),
				URL:  u,
				File: fmt.Sprintf("%s-%d.zip", category, year),
			})
		}
	}
	return units, nil
}

// UnzipCSV extracts the first CSV member of the exporter zip at zipPath into
// dstDir and returns the extracted path.
func UnzipCSV(zipPath, dstDir string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("reporter: opening %s: %w", zipPath, err)
	}
	defer zr.Close()

	for _, member := range zr.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		if err := os.MkdirAll(dstDir, 0o755); err != nil {
			return "", fmt.Errorf("reporter: creating %s: %w", dstDir, err)
		}

		dst := filepath.Join(dstDir, filepath.Base(member.Name))
		rc, err := member.Open()
		if err != nil {
			return "", fmt.Errorf("reporter: opening zip member %s: %w", member.Name, err)
		}
		out, err := os.Create(dst)
		if err != nil {
			rc.Close()
			return "", fmt.Errorf("reporter: creating %s: %w", dst, err)
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		closeErr := out.Close()
		if copyErr != nil {
			return "", fmt.Errorf("reporter: extracting %s: %w", member.Name, copyErr)
		}
		if closeErr != nil {
			return "", fmt.Errorf("reporter: closing %s: %w", dst, closeErr)
		}
		return dst, nil
	}

	return "", fmt.Errorf("reporter: no CSV member in %s", zipPath)
}

// CSVToTable parses a latin-1 exporter CSV into a table. Column names come
// from the header row; columns in the numeric map become optional int64 and
// everything else optional string. Empty cells and unparseable numerics are
// null.
func CSVToTable(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reporter: reading CSV header: %w", err)
	}

	cols := make([]table.Column, len(header))
	for i, name := range header {
		name = strings.Trim(strings.TrimSpace(name), `"`)
		kind := table.KindString
		if int64Columns[name] {
			kind = table.KindInt64
		}
		cols[i] = table.Column{Name: name, Kind: kind}
	}

	tbl, err := table.New(cols)
	if err != nil {
		return nil, fmt.Errorf("reporter: building schema: %w", err)
	}

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reporter: reading CSV row: %w", err)
		}

		values := make([]any, len(cols))
		for i, field := range fields {
			if i >= len(cols) {
				break
			}
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			if cols[i].Kind == table.KindInt64 {
				n, err := strconv.ParseInt(field, 10, 64)
				if err != nil {
					continue
				}
				values[i] = n
			} else {
				values[i] = field
			}
		}
		if err := tbl.Append(values...); err != nil {
			return nil, fmt.Errorf("reporter: appending row: %w", err)
		}
	}

	return tbl, nil
}

// TableBytes parses the extracted CSV at path and returns it encoded as
// parquet, along with the row count.
func TableBytes(path string) ([]byte, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reporter: opening %s: %w", path, err)
	}
	defer f.Close()

	tbl, err := CSVToTable(f)
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	if err := tbl.WriteParquet(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), tbl.Len(), nil
}
