package crisis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumns marks a table that lacks required columns.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrEmptyDataset marks a table with no row left to score.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrScoring marks a failure of the outlier detector or its input.
	ErrScoring = errors.New("anomaly scoring failed")
	// ErrInvalidContamination marks a contamination outside (0, 1).
	ErrInvalidContamination = errors.New("contamination must be in (0, 1)")
)

// ValidationError reports the required columns a table does not carry.
type ValidationError struct {
	MissingColumns []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.MissingColumns, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrMissingColumns
}

// EmptyDatasetError is returned when no row has a numeric Year.
type EmptyDatasetError struct {
	// InputRows is the row count before Year coercion.
	InputRows int
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("%s: none of %d rows has a numeric %s", ErrEmptyDataset, e.InputRows, ColYear)
}

func (e *EmptyDatasetError) Unwrap() error {
	return ErrEmptyDataset
}

// ScoringError wraps a failure while building or scoring the feature matrix.
type ScoringError struct {
	Err error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("%s: %v", ErrScoring, e.Err)
}

func (e *ScoringError) Unwrap() []error {
	return []error{ErrScoring, e.Err}
}

// IsValidation reports whether err is a missing-columns failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingColumns)
}

// IsEmptyDataset reports whether err is an empty-dataset failure.
func IsEmptyDataset(err error) bool {
	return errors.Is(err, ErrEmptyDataset)
}

// IsScoring reports whether err is a scoring failure.
func IsScoring(err error) bool {
	return errors.Is(err, ErrScoring)
}
