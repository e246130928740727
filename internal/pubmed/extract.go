// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed extracts PMID-to-DOI link tables from PubMed baseline XML.
//
// Baseline segments hold tens of thousands of citation records, so the
// extractor walks the document as a token stream and only ever decodes one
// ArticleIdList subtree at a time. Memory stays flat regardless of how far
// into the document the parser is.
package pubmed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// idListTag is the element carrying a citation's identifiers.
const idListTag = "ArticleIdList"

// ErrMissingPMID is returned when an ArticleIdList carries no pubmed
// identifier. Every baseline citation is expected to have one, so its
// absence is treated as a malformed document rather than a droppable row.
var ErrMissingPMID = errors.New("pubmed: ArticleIdList without pubmed identifier")

// Record is one PMID/DOI pair. After filtering, DOI is always non-empty.
type Record struct {
	PMID string `parquet:"PMID"`
	DOI  string `parquet:"DOI"`
}

// articleIDList mirrors the ArticleIdList element.
type articleIDList struct {
	IDs []articleID `xml:"ArticleId"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

// Extract streams the XML document in r and returns one Record per
// ArticleIdList element that carries both a PMID and a DOI. Elements without
// a DOI are dropped after the stream is exhausted. A document with no
// matching elements yields an empty, non-nil slice. Malformed or truncated
// input returns an error and no records.
func Extract(r io.Reader) ([]Record, error) {
	dec := xml.NewDecoder(r)

	var all []Record
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pubmed: parsing document: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != idListTag {
			continue
		}

		var list articleIDList
		if err := dec.DecodeElement(&list, &se); err != nil {
			return nil, fmt.Errorf("pubmed: decoding %s: %w", idListTag, err)
		}

		var rec Record
		for _, id := range list.IDs {
			switch id.Type {
			case "pubmed":
				rec.PMID = id.Value
			case "doi":
				rec.DOI = id.Value
			}
		}
		if rec.PMID == "" {
			return nil, ErrMissingPMID
		}
		all = append(all, rec)
	}

	records := make([]Record, 0, len(all))
	for _, rec := range all {
		if rec.DOI == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ExtractFile runs Extract over the document at path.
func ExtractFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pubmed: opening %s: %w", path, err)
	}
	defer f.Close()
	return Extract(f)
}

// TableBytes extracts path and returns the link table encoded as parquet,
// along with the row count.
func TableBytes(path string) ([]byte, int, error) {
	records, err := ExtractFile(path)
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, records); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(records), nil
}

// WriteTable encodes records as a two-column (PMID, DOI) parquet table.
func WriteTable(w io.Writer, records []Record) error {
	if err := parquet.Write(w, records); err != nil {
		return fmt.Errorf("pubmed: writing link table: %w", err)
	}
	return nil
}

// ReadTable decodes a parquet link table produced by WriteTable.
func ReadTable(data []byte) ([]Record, error) {
	records, err := parquet.Read[Record](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pubmed: reading link table: %w", err)
	}
	return records, nil
}
