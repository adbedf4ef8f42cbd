package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrDatasetNotFound  = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrChartNotFound    = fmt.Errorf("%w: chart", ErrNotFound)
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)

	// Ingestion errors
	ErrMissingColumn = errors.New("missing required column")
	ErrParse         = errors.New("parse error")
	ErrEmptyFile     = errors.New("empty file")

	// Analysis errors
	ErrNoValidData      = errors.New("no valid numeric data")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrInvalidInput     = errors.New("invalid input")
)

// NewMissingColumnError reports a reserved column absent from an uploaded file
func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

// NewParseError wraps a decoding failure for the named file
func NewParseError(filename string, err error) error {
	return fmt.Errorf("%w in %s: %v", ErrParse, filename, err)
}

// NewNoValidDataError reports a variable where no row parsed to a usable pair
func NewNoValidDataError(variable string) error {
	return fmt.Errorf("%w for variable %s", ErrNoValidData, variable)
}

// NewNotFoundError reports a missing resource by kind and id
func NewNotFoundError(kind error, id string) error {
	return fmt.Errorf("%w with id %s", kind, id)
}

// IsNotFoundError reports whether err is any not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsIngestionError reports whether err rejects an uploaded file
func IsIngestionError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrEmptyFile)
}
