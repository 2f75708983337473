package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrMalformedInput = errors.New("malformed input")
	ErrMissingColumn  = fmt.Errorf("%w: missing column", ErrMalformedInput)
	ErrUnparsableCell = fmt.Errorf("%w: unparsable cell", ErrMalformedInput)
	ErrEmptyTable     = fmt.Errorf("%w: table has no data rows", ErrMalformedInput)

	// Statistical domain errors
	ErrDomain           = errors.New("statistical domain error")
	ErrDegenerateInput  = fmt.Errorf("%w: degenerate input", ErrDomain)
	ErrInsufficientData = fmt.Errorf("%w: insufficient data for analysis", ErrDomain)
	ErrUnknownGroup     = fmt.Errorf("%w: unknown group", ErrDomain)
)

// NewMissingColumnError reports a required column absent from a table header
func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w %q", ErrMissingColumn, column)
}

// NewCellError reports a cell that could not be parsed. Row is 1-based and
// counts the header, so it matches the line number in a CSV file.
func NewCellError(row int, column, value string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: row %d column %q value %q: %v", ErrUnparsableCell, row, column, value, cause)
	}
	return fmt.Errorf("%w: row %d column %q value %q", ErrUnparsableCell, row, column, value)
}

// NewDegenerateError reports input on which a statistic is undefined
func NewDegenerateError(test, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrDegenerateInput, test, reason)
}

// NewInsufficientDataError reports a sample that is too small for a test
func NewInsufficientDataError(test string, have, need int) error {
	return fmt.Errorf("%w: %s needs at least %d observations, got %d", ErrInsufficientData, test, need, have)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}
