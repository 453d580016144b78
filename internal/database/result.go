package database

import (
	"fmt"

	"github.com/koustreak/querykit/internal/errs"
)

// Result is the fully materialized output of one query execution: ordered,
// unique column names and the rows aligned to them, in driver order.
// A Result is immutable; accessors hand out copies.
type Result struct {
	columns []string
	rows    [][]any
}

// NewResult builds a Result from already materialized data. Column names
// must be unique and every row must have one value per column.
func NewResult(columns []string, rows [][]any) (*Result, error) {
	if dup, ok := duplicateColumn(columns); ok {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("duplicate column name %q", dup))
	}
	r := &Result{
		columns: append([]string(nil), columns...),
		rows:    make([][]any, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("row %d has %d values, want %d", i, len(row), len(columns)))
		}
		r.rows = append(r.rows, append([]any(nil), row...))
	}
	return r, nil
}

// Columns returns the column names in driver order.
func (r *Result) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Len returns the number of rows.
func (r *Result) Len() int {
	return len(r.rows)
}

// Row returns a copy of row i. It panics if i is out of range, like a slice.
func (r *Result) Row(i int) []any {
	return append([]any(nil), r.rows[i]...)
}

// Rows returns a copy of every row.
func (r *Result) Rows() [][]any {
	out := make([][]any, len(r.rows))
	for i := range r.rows {
		out[i] = r.Row(i)
	}
	return out
}

// Records returns every row keyed by column name.
// The returned slice is always non-nil (empty slice on zero rows).
func (r *Result) Records() []map[string]any {
	out := make([]map[string]any, 0, len(r.rows))
	for _, row := range r.rows {
		rec := make(map[string]any, len(r.columns))
		for i, col := range r.columns {
			rec[col] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// scanAll reads the column metadata and every row of rows into a Result.
// It always closes rows before returning, on success and on failure.
func scanAll(rows Rows) (*Result, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}
	if dup, ok := duplicateColumn(columns); ok {
		return nil, errs.New(errs.ErrKindQueryFailed,
			fmt.Sprintf("duplicate column name %q in result set; alias it in the projection", dup))
	}

	result := &Result{columns: columns, rows: make([][]any, 0)}

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}
		result.rows = append(result.rows, dest)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return result, nil
}

func duplicateColumn(columns []string) (string, bool) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return c, true
		}
		seen[c] = true
	}
	return "", false
}
