package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types. Charts hold a DatasetID rather than a position in
// the dataset list, so removing a dataset never shifts another chart's binding.
type (
	DatasetID     ID
	ChartID       ID
	MergedChartID ID
)

func (id DatasetID) String() string     { return ID(id).String() }
func (id ChartID) String() string       { return ID(id).String() }
func (id MergedChartID) String() string { return ID(id).String() }

func (id DatasetID) IsEmpty() bool     { return id == "" }
func (id ChartID) IsEmpty() bool       { return id == "" }
func (id MergedChartID) IsEmpty() bool { return id == "" }

// NewDatasetID creates a fresh dataset identifier
func NewDatasetID() DatasetID { return DatasetID(NewID()) }

// NewChartID creates a fresh chart identifier
func NewChartID() ChartID { return ChartID(NewID()) }

// NewMergedChartID creates a fresh merged chart identifier
func NewMergedChartID() MergedChartID { return MergedChartID(NewID()) }

// ParseDatasetID parses a string into DatasetID
func ParseDatasetID(s string) (DatasetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: dataset ID cannot be empty", ErrInvalidInput)
	}
	return DatasetID(s), nil
}

// ParseChartID parses a string into ChartID
func ParseChartID(s string) (ChartID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: chart ID cannot be empty", ErrInvalidInput)
	}
	return ChartID(s), nil
}

// ParseMergedChartID parses a string into MergedChartID
func ParseMergedChartID(s string) (MergedChartID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: merged chart ID cannot be empty", ErrInvalidInput)
	}
	return MergedChartID(s), nil
}
