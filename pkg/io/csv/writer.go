package csv

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Writer writes a header and rows as CSV.
type Writer struct {
	w *csv.Writer
}

// NewWriter creates a Writer on dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(dst)}
}

// WriteAll writes the header followed by rows and flushes.
func (w *Writer) WriteAll(header []string, rows [][]string) error {
	if err := w.w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := w.w.WriteAll(rows); err != nil {
		return fmt.Errorf("csv: write rows: %w", err)
	}
	return nil
}
