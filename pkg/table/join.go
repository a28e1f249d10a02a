package table

import "fmt"

// LeftJoin joins right to left on the column on.
//
// Every left row is kept. A left row matching n right rows appears n times,
// in right order; a left row matching nothing gets missing values for the
// right columns. Missing keys match nothing.
//
// The result has the left columns, then the right columns except on.
// A non-key column present in both sides is renamed with "_x" (left) and
// "_y" (right) suffixes.
func LeftJoin(left, right *Table, on string) (*Table, error) {
	lkey, ok := left.index[on]
	if !ok {
		return nil, fmt.Errorf("%w: %s (left side)", ErrNoSuchColumn, on)
	}
	rkey, ok := right.index[on]
	if !ok {
		return nil, fmt.Errorf("%w: %s (right side)", ErrNoSuchColumn, on)
	}

	rightCols := make([]int, 0, len(right.columns)-1)
	for nth := range right.columns {
		if nth != rkey {
			rightCols = append(rightCols, nth)
		}
	}

	columns := make([]string, 0, len(left.columns)+len(rightCols))
	for _, c := range left.columns {
		if _, dup := right.index[c]; dup && c != on {
			c = c + "_x"
		}
		columns = append(columns, c)
	}
	for _, nth := range rightCols {
		c := right.columns[nth]
		if _, dup := left.index[c]; dup {
			c = c + "_y"
		}
		columns = append(columns, c)
	}

	out, err := New(columns...)
	if err != nil {
		return nil, err
	}

	lookup := map[string][]int{}
	for nth, r := range right.rows {
		k := r[rkey]
		if k.IsNull() {
			continue
		}
		lookup[k.String()] = append(lookup[k.String()], nth)
	}

	for _, l := range left.rows {
		var matches []int
		if k := l[lkey]; !k.IsNull() {
			matches = lookup[k.String()]
		}

		if len(matches) == 0 {
			row := make([]Cell, 0, len(columns))
			row = append(row, l...)
			for range rightCols {
				row = append(row, Null())
			}
			out.rows = append(out.rows, row)
			continue
		}

		for _, m := range matches {
			row := make([]Cell, 0, len(columns))
			row = append(row, l...)
			for _, nth := range rightCols {
				row = append(row, right.rows[m][nth])
			}
			out.rows = append(out.rows, row)
		}
	}

	return out, nil
}
