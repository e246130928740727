// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"bytes"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testColumns() []Column {
	return []Column{
		{Name: "PROJECT_TITLE", Kind: KindString},
		{Name: "TOTAL_COST", Kind: KindInt64},
	}
}

func TestNewRejectsBadSchemas(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]Column{{Name: "", Kind: KindString}})
	assert.Error(t, err)

	_, err = New([]Column{{Name: "A"}, {Name: "A"}})
	assert.Error(t, err)
}

func TestAppend(t *testing.T) {
	tbl, err := New(testColumns())
	require.NoError(t, err)

	require.NoError(t, tbl.Append("Grant one", int64(100000)))
	require.NoError(t, tbl.Append("Grant two", nil))
	assert.Equal(t, 2, tbl.Len())

	// Arity mismatch.
	assert.Error(t, tbl.Append("only one value"))
	// Type mismatch.
	assert.Error(t, tbl.Append("Grant three", "not an int"))
}

func TestWriteParquetRoundTrip(t *testing.T) {
	tbl, err := New(testColumns())
	require.NoError(t, err)
	require.NoError(t, tbl.Append("Grant one", int64(100000)))
	require.NoError(t, tbl.Append("Grant two", nil))
	require.NoError(t, tbl.Append("Grant three", int64(250000)))

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteParquet(&buf))

	pf, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, int64(3), pf.NumRows())

	fields := pf.Schema().Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name())
	}
	assert.ElementsMatch(t, []string{"PROJECT_TITLE", "TOTAL_COST"}, names)
}

func TestWriteParquetEmptyTable(t *testing.T) {
	tbl, err := New(testColumns())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteParquet(&buf))

	pf, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, int64(0), pf.NumRows())
}
