// pkg/model/table.go
package model

// Table is a fully materialized table: ordered column names and one value
// slice per row, aligned with Columns.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with exactly this name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// DropColumns removes every column whose name is in drop, keeping the
// remaining columns and row values in their original order. It returns the
// names actually removed.
func (t *Table) DropColumns(drop map[string]bool) []string {
	if len(drop) == 0 {
		return nil
	}

	keep := make([]int, 0, len(t.Columns))
	var removed []string
	for i, col := range t.Columns {
		if drop[col] {
			removed = append(removed, col)
			continue
		}
		keep = append(keep, i)
	}

	if len(removed) == 0 {
		return nil
	}

	columns := make([]string, len(keep))
	for j, i := range keep {
		columns[j] = t.Columns[i]
	}
	t.Columns = columns

	for r, row := range t.Rows {
		values := make([]interface{}, len(keep))
		for j, i := range keep {
			if i < len(row) {
				values[j] = row[i]
			}
		}
		t.Rows[r] = values
	}

	return removed
}

// RowCount returns the number of rows currently held
func (t *Table) RowCount() int {
	return len(t.Rows)
}
