package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrEmpty = errors.New("table: no header")

// tokens read as missing values, as the analysis tools writing these files do.
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// ParseCell converts a raw field into a cell.
func ParseCell(raw string) Cell {
	if _, ok := nullTokens[raw]; ok {
		return Null()
	}
	return Text(raw)
}

// ParseTSV reads tab separated text with a header line.
//
// Duplicated header names get ".1", ".2", ... suffixes.
// Rows shorter than the header are padded with missing values;
// longer rows are an error.
func ParseTSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	} else if err != nil {
		return nil, fmt.Errorf("table: header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t, err := New(dedupeHeader(header)...)
	if err != nil {
		return nil, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("table: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if len(record) > len(header) {
			return nil, fmt.Errorf(
				"%w: line %d has %d fields, header has %d",
				ErrColumnMismatch, line, len(record), len(header),
			)
		}

		cells := make([]Cell, len(header))
		for nth := range cells {
			if nth < len(record) {
				cells[nth] = ParseCell(record[nth])
			} else {
				cells[nth] = Null()
			}
		}
		t.rows = append(t.rows, cells)
	}

	return t, nil
}

func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	taken := map[string]struct{}{}
	for _, h := range header {
		taken[h] = struct{}{}
	}
	for nth, h := range header {
		n, dup := seen[h]
		seen[h] = n + 1
		if !dup {
			out[nth] = h
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for {
			if _, ok := taken[name]; !ok {
				break
			}
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h] = n + 1
		taken[name] = struct{}{}
		out[nth] = name
	}
	return out
}
