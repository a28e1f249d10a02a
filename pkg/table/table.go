// Package table provides a small column-oriented model of tab separated result
// files: best-effort numeric inference, missing values, derived columns and a
// left join.
package table

import (
	"errors"
	"fmt"
	"strconv"
)

// Cell is one value of a table.
//
// A cell keeps the text as it was read. Numeric interpretation is done on
// demand, so equality and display never depend on float formatting.
type Cell struct {
	text string
	null bool
}

// Null is a missing value.
func Null() Cell {
	return Cell{null: true}
}

// Text is a present value.
func Text(s string) Cell {
	return Cell{text: s}
}

// IsNull reports whether the cell is a missing value.
func (c Cell) IsNull() bool {
	return c.null
}

// String returns the text of the cell. Missing values are "".
func (c Cell) String() string {
	if c.null {
		return ""
	}
	return c.text
}

// Float returns the numeric value of the cell.
//
// ok is false when the cell is missing or not a number.
func (c Cell) Float() (v float64, ok bool) {
	if c.null {
		return 0, false
	}
	f, err := strconv.ParseFloat(c.text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Equal compares two cells by text. Missing values are equal to nothing.
func (c Cell) Equal(o Cell) bool {
	if c.null || o.null {
		return false
	}
	return c.text == o.text
}

var (
	ErrNoSuchColumn    = errors.New("table: no such column")
	ErrColumnMismatch  = errors.New("table: number of cells does not match columns")
	ErrDuplicateColumn = errors.New("table: duplicated column")
)

// Table is an ordered sequence of rows sharing a header.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// New creates an empty table with columns.
func New(columns ...string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for nth, c := range columns {
		if _, ok := index[c]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c)
		}
		index[c] = nth
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols, index: index}, nil
}

// Columns returns the column names in header order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Has reports whether the table has column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Len is the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Append adds a row. cells should be ordered as Columns.
func (t *Table) Append(cells ...Cell) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf(
			"%w: %d cells for %d columns", ErrColumnMismatch, len(cells), len(t.columns),
		)
	}
	row := make([]Cell, len(cells))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return nil
}

// Row returns the nth row.
func (t *Table) Row(nth int) Row {
	return Row{table: t, cells: t.rows[nth]}
}

// Rows returns all rows in order.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for nth := range t.rows {
		rows[nth] = t.Row(nth)
	}
	return rows
}

// Column returns the cells of column in row order.
func (t *Table) Column(column string) ([]Cell, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchColumn, column)
	}
	cells := make([]Cell, len(t.rows))
	for nth, r := range t.rows {
		cells[nth] = r[idx]
	}
	return cells, nil
}

// Numeric reports whether every present value of column is a number.
//
// A column without present values is not numeric.
func (t *Table) Numeric(column string) bool {
	cells, err := t.Column(column)
	if err != nil {
		return false
	}
	seen := false
	for _, c := range cells {
		if c.IsNull() {
			continue
		}
		if _, ok := c.Float(); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// WithColumn returns a copy of the table having column computed by derive.
//
// If the column exists already, its values are replaced in place.
func (t *Table) WithColumn(column string, derive func(Row) Cell) *Table {
	cols := t.Columns()
	idx, exists := t.index[column]
	if !exists {
		idx = len(cols)
		cols = append(cols, column)
	}

	out, _ := New(cols...)
	out.rows = make([][]Cell, 0, len(t.rows))
	for _, r := range t.rows {
		row := make([]Cell, len(cols))
		copy(row, r)
		row[idx] = derive(Row{table: t, cells: r})
		out.rows = append(out.rows, row)
	}
	return out
}

// Where returns a table with rows satisfying pred, keeping order.
func (t *Table) Where(pred func(Row) bool) *Table {
	out, _ := New(t.columns...)
	for _, r := range t.rows {
		if pred(Row{table: t, cells: r}) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Row is a view of one row of a table.
type Row struct {
	table *Table
	cells []Cell
}

// Get returns the cell at column. Unknown columns read as missing values.
func (r Row) Get(column string) Cell {
	idx, ok := r.table.index[column]
	if !ok {
		return Null()
	}
	return r.cells[idx]
}

// Map returns the row as column name to text. Missing values are absent.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.cells))
	for nth, c := range r.cells {
		if c.IsNull() {
			continue
		}
		m[r.table.columns[nth]] = c.String()
	}
	return m
}
