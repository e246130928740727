// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table holds a fixed-schema columnar table and its parquet encoding.
package table

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// Kind is the logical type of a column.
type Kind int

const (
	// KindString stores optional UTF-8 strings.
	KindString Kind = iota
	// KindInt64 stores optional 64-bit integers.
	KindInt64
)

// Column describes one named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Table is an ordered collection of rows with a fixed schema. Values are
// string, int64, or nil for absent cells.
type Table struct {
	cols []Column
	rows []map[string]any
}

// New creates an empty table with the given columns.
func New(cols []Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("table: no columns")
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("table: empty column name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		seen[c.Name] = true
	}
	return &Table{cols: cols}, nil
}

// Columns returns the schema in declaration order.
func (t *Table) Columns() []Column {
	return t.cols
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Append adds one row. Values are matched to columns positionally; a nil
// value marks an absent cell. The value type must match the column kind.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.cols) {
		return fmt.Errorf("table: row has %d values, schema has %d columns", len(values), len(t.cols))
	}
	row := make(map[string]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		col := t.cols[i]
		switch col.Kind {
		case KindString:
			if _, ok := v.(string); !ok {
				return fmt.Errorf("table: column %q wants string, got %T", col.Name, v)
			}
		case KindInt64:
			if _, ok := v.(int64); !ok {
				return fmt.Errorf("table: column %q wants int64, got %T", col.Name, v)
			}
		}
		row[col.Name] = v
	}
	t.rows = append(t.rows, row)
	return nil
}

// WriteParquet encodes the table as a parquet file. Every column is written
// as an optional leaf; nil cells become nulls.
func (t *Table) WriteParquet(w io.Writer) error {
	group := parquet.Group{}
	for _, c := range t.cols {
		switch c.Kind {
		case KindInt64:
			group[c.Name] = parquet.Optional(parquet.Int(64))
		default:
			group[c.Name] = parquet.Optional(parquet.String())
		}
	}
	schema := parquet.NewSchema("table", group)

	pw := parquet.NewGenericWriter[map[string]any](w, schema)
	if len(t.rows) > 0 {
		if _, err := pw.Write(t.rows); err != nil {
			return fmt.Errorf("table: writing parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("table: closing parquet writer: %w", err)
	}
	return nil
}
