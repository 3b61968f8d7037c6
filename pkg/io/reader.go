// Package io provides input/output utilities for data ingestion.
package io

// Table is a read-only view of tabular data addressed by column name.
type Table interface {
	// Columns returns the header in file order.
	Columns() []string

	// Len returns the number of data rows.
	Len() int

	// Value returns the raw cell at row for column. ok is false when the
	// column does not exist or the row is too short to hold it.
	Value(row int, column string) (value string, ok bool)
}

// Reader loads a complete table from some source.
type Reader interface {
	// Read returns the complete dataset.
	Read() (*Records, error)

	// Close releases resources.
	Close() error
}

// Records is an in-memory Table built from a header and string rows.
type Records struct {
	header []string
	index  map[string]int
	rows   [][]string
}

var _ Table = (*Records)(nil)

// NewRecords builds a table. When a header name repeats, the first
// occurrence wins for lookups by name.
func NewRecords(header []string, rows [][]string) *Records {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return &Records{
		header: header,
		index:  index,
		rows:   rows,
	}
}

// Columns returns the header in file order.
func (r *Records) Columns() []string {
	return r.header
}

// Len returns the number of data rows.
func (r *Records) Len() int {
	return len(r.rows)
}

// Value returns the cell at row for column.
func (r *Records) Value(row int, column string) (string, bool) {
	idx, ok := r.index[column]
	if !ok || row < 0 || row >= len(r.rows) {
		return "", false
	}
	cells := r.rows[row]
	if idx >= len(cells) {
		return "", false
	}
	return cells[idx], true
}
