// Package metadata derives the selectable grouping columns and group terms
// from a merged sample metadata table.
package metadata

import (
	"strings"

	"github.com/gnps/groupselector/pkg/table"
)

// FilenameMarker excludes a column from grouping when its name contains it.
// The match is case-sensitive.
const FilenameMarker = "filename"

// TermSeparator joins multiple group memberships in one cell.
const TermSeparator = ","

type Columns struct {
	Names []string

	// Default is the first of Names, or "" when Names is empty.
	Default string
}

// Empty means no grouping column can be selected.
func (c Columns) Empty() bool {
	return len(c.Names) == 0
}

// Contains reports whether name is one of the selectable columns.
func (c Columns) Contains(name string) bool {
	for _, n := range c.Names {
		if n == name {
			return true
		}
	}
	return false
}

// ResolveColumns lists columns usable for grouping, in table order.
func ResolveColumns(t *table.Table) Columns {
	cols := Columns{Names: []string{}}
	if t == nil {
		return cols
	}
	for _, c := range t.Columns() {
		if strings.Contains(c, FilenameMarker) {
			continue
		}
		cols.Names = append(cols.Names, c)
	}
	if len(cols.Names) > 0 {
		cols.Default = cols.Names[0]
	}
	return cols
}

type Terms struct {
	// Values in first-seen order: by row, then by position within the cell.
	Values []string

	// Default1 is the first of Values, Default2 the last. Both are "" when Values is empty.
	Default1 string
	Default2 string
}

func (t Terms) Empty() bool {
	return len(t.Values) == 0
}

func (t Terms) Contains(term string) bool {
	for _, v := range t.Values {
		if v == term {
			return true
		}
	}
	return false
}

// ResolveTerms lists the distinct group labels of column.
//
// Missing values are dropped. Each remaining value is split on TermSeparator
// and the pieces are collected without duplicates. Pieces are not trimmed.
//
// An unknown column gives empty Terms.
func ResolveTerms(t *table.Table, column string) Terms {
	terms := Terms{Values: []string{}}
	if t == nil {
		return terms
	}
	cells, err := t.Column(column)
	if err != nil {
		return terms
	}

	seenCell := map[string]struct{}{}
	seenTerm := map[string]struct{}{}
	for _, c := range cells {
		if c.IsNull() {
			continue
		}
		v := c.String()
		if _, ok := seenCell[v]; ok {
			continue
		}
		seenCell[v] = struct{}{}

		for _, piece := range strings.Split(v, TermSeparator) {
			if _, ok := seenTerm[piece]; ok {
				continue
			}
			seenTerm[piece] = struct{}{}
			terms.Values = append(terms.Values, piece)
		}
	}

	if len(terms.Values) > 0 {
		terms.Default1 = terms.Values[0]
		terms.Default2 = terms.Values[len(terms.Values)-1]
	}
	return terms
}
