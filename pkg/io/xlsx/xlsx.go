// Package xlsx reads and writes tables as Excel workbooks.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	dataio "github.com/hed1ad/crisiswatch/pkg/io"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("xlsx: workbook has no sheets")

// Reader loads one worksheet of a workbook as a table.
type Reader struct {
	file  *excelize.File
	sheet string
}

var _ dataio.Reader = (*Reader)(nil)

// Option configures a Reader.
type Option func(*Reader)

// WithSheet selects a worksheet by name instead of the first one.
func WithSheet(name string) Option {
	return func(r *Reader) {
		r.sheet = name
	}
}

// NewReader opens the workbook at filename.
func NewReader(filename string, opts ...Option) (*Reader, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %s: %w", filename, err)
	}
	return newReader(f, opts...), nil
}

// NewReaderFrom reads a workbook from a stream.
func NewReaderFrom(src io.Reader, opts ...Option) (*Reader, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open: %w", err)
	}
	return newReader(f, opts...), nil
}

func newReader(f *excelize.File, opts ...Option) *Reader {
	r := &Reader{file: f}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read returns the selected sheet; its first row is the header.
func (r *Reader) Read() (*dataio.Records, error) {
	sheet := r.sheet
	if sheet == "" {
		sheets := r.file.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheets
		}
		sheet = sheets[0]
	}

	rows, err := r.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return dataio.NewRecords(nil, nil), nil
	}

	return dataio.NewRecords(rows[0], rows[1:]), nil
}

// Close releases resources.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadFile is a convenience wrapper that loads the first sheet of a workbook.
func ReadFile(filename string, opts ...Option) (*dataio.Records, error) {
	r, err := NewReader(filename, opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.Read()
}

// Write stores header and rows in a single-sheet workbook on dst. Cells
// that parse as numbers are written as numbers.
func Write(dst io.Writer, sheet string, header []string, rows [][]string) error {
	f, err := build(sheet, header, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(dst); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

// WriteFile is Write to a path.
func WriteFile(path, sheet string, header []string, rows [][]string) error {
	f, err := build(sheet, header, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return nil
}

func build(sheet string, header []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: name sheet: %w", err)
	}

	if err := writeRow(f, sheet, 1, header, false); err != nil {
		f.Close()
		return nil, err
	}
	for i, row := range rows {
		if err := writeRow(f, sheet, i+2, row, true); err != nil {
			f.Close()
			return nil, err
		}
	}

	if len(header) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xlsx: style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("xlsx: style header: %w", err)
		}
	}

	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string, numeric bool) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
		if numeric {
			if v, err := strconv.ParseFloat(c, 64); err == nil {
				values[i] = v
			}
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: write row %d: %w", row, err)
	}
	return nil
}
