// Package features presents the cluster summary of a task as a filterable,
// pageable table of features from which one can be selected.
package features

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gnps/groupselector/pkg/link"
	"github.com/gnps/groupselector/pkg/table"
)

const (
	ParentMass    = "parent mass"
	PrecursorMass = "precursor mass"
	RTMean        = "RTMean"
	ClusterIndex  = "cluster index"
)

// PageSize is the number of rows shown per page.
const PageSize = 10

// Column is a displayed column: a header label and the table column it shows.
type Column struct {
	Label string
	ID    string
}

var Columns = []Column{
	{Label: "Feature m/z", ID: ParentMass},
	{Label: "Feature RT", ID: RTMean},
	{Label: "cluster index", ID: ClusterIndex},
}

var (
	ErrBadFilter     = errors.New("features: bad filter")
	ErrNotSelectable = errors.New("features: feature has no mass or retention time")
)

// Table is a view over the cluster summary.
type Table struct {
	source *table.Table
	rows   []table.Row
}

// New wraps a cluster summary table.
func New(clusterSummary *table.Table) *Table {
	return &Table{source: clusterSummary, rows: clusterSummary.Rows()}
}

func (ft *Table) Len() int {
	return len(ft.rows)
}

// Rows returns the rows of the view in order.
func (ft *Table) Rows() []table.Row {
	return ft.rows
}

// Filter keeps rows satisfying every expression. filters maps a column to an
// expression:
//
//	"> 300", ">= 300", "< 5", "<= 5", "= 12", "!= 12"  numeric comparison
//	"contains abc"                                   substring
//	"abc"                                            equality on numeric columns, substring otherwise
//
// Empty expressions are ignored. Columns are compiled in name order, so the
// first malformed one by name is reported.
func (ft *Table) Filter(filters map[string]string) (*Table, error) {
	preds := make([]func(table.Row) bool, 0, len(filters))
	for _, col := range slices.Sorted(maps.Keys(filters)) {
		expr := strings.TrimSpace(filters[col])
		if expr == "" {
			continue
		}
		p, err := compile(col, expr, ft.source.Numeric(col))
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	out := &Table{source: ft.source}
	for _, r := range ft.rows {
		keep := true
		for _, p := range preds {
			if !p(r) {
				keep = false
				break
			}
		}
		if keep {
			out.rows = append(out.rows, r)
		}
	}
	return out, nil
}

var operators = []string{">=", "<=", "!=", ">", "<", "="}

func compile(col, expr string, numeric bool) (func(table.Row) bool, error) {
	if rest, ok := strings.CutPrefix(expr, "contains "); ok {
		needle := strings.TrimSpace(rest)
		return func(r table.Row) bool {
			c := r.Get(col)
			return !c.IsNull() && strings.Contains(c.String(), needle)
		}, nil
	}

	op := ""
	operand := expr
	for _, o := range operators {
		if rest, ok := strings.CutPrefix(expr, o); ok {
			op, operand = o, strings.TrimSpace(rest)
			break
		}
	}

	if op == "" && !numeric {
		return func(r table.Row) bool {
			c := r.Get(col)
			return !c.IsNull() && strings.Contains(c.String(), operand)
		}, nil
	}
	if op == "" {
		op = "="
	}

	want, err := strconv.ParseFloat(operand, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %q is not a number", ErrBadFilter, col, operand)
	}
	cmp := map[string]func(a, b float64) bool{
		">=": func(a, b float64) bool { return a >= b },
		"<=": func(a, b float64) bool { return a <= b },
		"!=": func(a, b float64) bool { return a != b },
		">":  func(a, b float64) bool { return a > b },
		"<":  func(a, b float64) bool { return a < b },
		"=":  func(a, b float64) bool { return a == b },
	}[op]

	return func(r table.Row) bool {
		v, ok := r.Get(col).Float()
		return ok && cmp(v, want)
	}, nil
}

// Page returns the nth page (0-origin) of size rows.
// Pages out of range are empty.
func (ft *Table) Page(nth, size int) []table.Row {
	if size <= 0 {
		size = PageSize
	}
	if nth < 0 || nth >= ft.Pages(size) {
		return []table.Row{}
	}
	begin := nth * size
	end := min(begin+size, len(ft.rows))
	return ft.rows[begin:end]
}

// Pages is the number of pages of size rows.
func (ft *Table) Pages(size int) int {
	if size <= 0 {
		size = PageSize
	}
	return (len(ft.rows) + size - 1) / size
}

// Find returns the row having clusterIndex.
func (ft *Table) Find(clusterIndex string) (table.Row, bool) {
	for _, r := range ft.rows {
		if c := r.Get(ClusterIndex); !c.IsNull() && c.String() == clusterIndex {
			return r, true
		}
	}
	return table.Row{}, false
}

// Selected converts a row into the feature passed to the viewer: its
// precursor mass and mean retention time.
func Selected(r table.Row) (*link.Feature, error) {
	mass, ok := r.Get(PrecursorMass).Float()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSelectable, PrecursorMass)
	}
	rt, ok := r.Get(RTMean).Float()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSelectable, RTMean)
	}
	return &link.Feature{Mass: mass, RetentionTime: rt}, nil
}
