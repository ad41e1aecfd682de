package models

import (
	"strconv"
	"strings"
)

// Row is one record of a [Table], keyed by column name.
type Row map[string]string

// Table is an ordered, column-headered tabular dataset.
//
// Rows may omit columns; a missing cell reads as the empty string.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty [Table] with the given header.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row built from values in column order. Extra values are ignored.
func (t *Table) Append(values ...string) {
	row := make(Row, len(t.Columns))
	for i, col := range t.Columns {
		if i < len(values) {
			row[col] = values[i]
		} else {
			row[col] = ""
		}
	}
	t.Rows = append(t.Rows, row)
}

// Record returns the values of row i in header order.
func (t *Table) Record(i int) []string {
	record := make([]string, len(t.Columns))
	for j, col := range t.Columns {
		record[j] = t.Rows[i][col]
	}
	return record
}

// Key returns a whole-row identity for row under columns.
//
// Two rows share a key exactly when every listed column holds the same value (missing == "").
func (r Row) Key(columns []string) string {
	var b strings.Builder
	for _, col := range columns {
		v := r[col]
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

// UnionColumns returns the columns of a followed by the columns of b not already present.
func UnionColumns(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, cols := range [][]string{a, b} {
		for _, col := range cols {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			out = append(out, col)
		}
	}
	return out
}
