// Package csv provides CSV file reading for tabular data.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	dataio "github.com/hed1ad/crisiswatch/pkg/io"
)

// ErrEmptyInput is returned when the source holds no header row.
var ErrEmptyInput = errors.New("csv: empty input")

const utf8BOM = "\ufeff"

// Reader reads data from CSV files.
type Reader struct {
	file      *os.File
	reader    *csv.Reader
	hasHeader bool
	delimiter rune
	headers   []string
}

var _ dataio.Reader = (*Reader)(nil)

// Option configures a CSV reader.
type Option func(*Reader)

// WithHeader indicates the CSV has a header row.
func WithHeader(has bool) Option {
	return func(r *Reader) {
		r.hasHeader = has
	}
}

// WithDelimiter sets the field separator (default ',').
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		r.delimiter = d
	}
}

// NewReader creates a new CSV reader over a file.
func NewReader(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r, err := NewReaderFrom(file, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReaderFrom creates a CSV reader over any stream. The caller owns src.
func NewReaderFrom(src io.Reader, opts ...Option) (*Reader, error) {
	r := &Reader{
		hasHeader: true,
		delimiter: ',',
	}

	for _, opt := range opts {
		opt(r)
	}

	r.reader = csv.NewReader(src)
	r.reader.Comma = r.delimiter
	r.reader.FieldsPerRecord = -1

	// Read header if present
	if r.hasHeader {
		headers, err := r.reader.Read()
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read header: %w", err)
		}
		if len(headers) > 0 {
			headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
		}
		r.headers = headers
	}

	return r, nil
}

// Headers returns the column headers.
func (r *Reader) Headers() []string {
	return r.headers
}

// Read returns every remaining record as a table. Without a header row the
// columns are named by their 1-based position.
func (r *Reader) Read() (*dataio.Records, error) {
	var rows [][]string
	width := len(r.headers)

	for {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		if len(record) > width {
			width = len(record)
		}
		rows = append(rows, record)
	}

	headers := r.headers
	if !r.hasHeader {
		headers = positionalHeaders(width)
	}

	return dataio.NewRecords(headers, rows), nil
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadFile is a convenience wrapper that loads a whole CSV file.
func ReadFile(filename string, opts ...Option) (*dataio.Records, error) {
	r, err := NewReader(filename, opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.Read()
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func positionalHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = strconv.Itoa(i + 1)
	}
	return headers
}
