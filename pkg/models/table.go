package models

import (
	"database/sql"
	"fmt"
)

// Table is an in-memory dataset with an explicit, ordered column set.
// Cells are text; Valid=false marks a missing value.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]sql.NullString
}

// ColumnSet is the schema of a table, checked before each stage runs.
type ColumnSet map[string]struct{}

func (s ColumnSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Text returns a present cell.
func Text(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

// Null is a missing cell.
var Null = sql.NullString{}

func NewTable(columns []string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) Schema() ColumnSet {
	s := make(ColumnSet, len(t.columns))
	for _, c := range t.columns {
		s[c] = struct{}{}
	}
	return s
}

// Missing returns the names not present in the table, in argument order.
func (t *Table) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !t.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// AppendRow adds a row; cells must follow column order.
func (t *Table) AppendRow(cells []sql.NullString) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.columns))
	}
	t.rows = append(t.rows, append([]sql.NullString(nil), cells...))
	return nil
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []sql.NullString {
	return append([]sql.NullString(nil), t.rows[i]...)
}

func (t *Table) Cell(row int, column string) (sql.NullString, bool) {
	j, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return sql.NullString{}, false
	}
	return t.rows[row][j], true
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]sql.NullString, bool) {
	j, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]sql.NullString, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, true
}

// SetColumn replaces the named column in place, or appends it when absent.
func (t *Table) SetColumn(name string, values []sql.NullString) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	j, ok := t.index[name]
	if !ok {
		j = len(t.columns)
		t.index[name] = j
		t.columns = append(t.columns, name)
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], sql.NullString{})
		}
	}
	for i, v := range values {
		t.rows[i][j] = v
	}
	return nil
}

// Select builds a new table holding the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	if missing := t.Missing(names...); len(missing) > 0 {
		return nil, &MissingColumnsError{Kind: ErrSchemaMissingColumns, Columns: missing}
	}
	out, err := NewTable(names)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]sql.NullString, len(t.rows))
	for i, r := range t.rows {
		row := make([]sql.NullString, len(names))
		for k, n := range names {
			row[k] = r[t.index[n]]
		}
		out.rows[i] = row
	}
	return out, nil
}

// NullCounts returns the columns holding missing values, in column order,
// with their counts.
func (t *Table) NullCounts() ([]string, map[string]int) {
	counts := map[string]int{}
	for _, r := range t.rows {
		for j, c := range r {
			if !c.Valid {
				counts[t.columns[j]]++
			}
		}
	}
	var cols []string
	for _, c := range t.columns {
		if counts[c] > 0 {
			cols = append(cols, c)
		}
	}
	return cols, counts
}
