package dataset

import (
	"fmt"
	"strings"

	"fraudlens/domain/core"
)

// Default reserved column names
const (
	DefaultFraudFlagColumn = "fraud_combined"
	DefaultSessionIDColumn = "sessionid"
)

// Row maps a column name to its raw cell text as read from the source file
type Row map[string]string

// ColumnMapping names the two reserved columns of an uploaded file
type ColumnMapping struct {
	FraudFlag string `json:"fraud_flag" yaml:"fraud_flag"`
	SessionID string `json:"session_id" yaml:"session_id"`
}

// DefaultColumnMapping returns the reserved column names used by the tool
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		FraudFlag: DefaultFraudFlagColumn,
		SessionID: DefaultSessionIDColumn,
	}
}

// IsReserved reports whether a header is one of the reserved columns.
// The comparison ignores case.
func (m ColumnMapping) IsReserved(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	return h == strings.ToLower(m.FraudFlag) || h == strings.ToLower(m.SessionID)
}

// Dataset is an immutable in-memory table built from one uploaded file
type Dataset struct {
	ID           core.DatasetID `json:"id"`
	Name         string         `json:"name"`
	Headers      []string       `json:"headers"`
	Variables    []string       `json:"variables"`
	TotalRecords int            `json:"total_records"`
	Columns      ColumnMapping  `json:"columns"`
	Fingerprint  core.Hash      `json:"fingerprint,omitempty"`
	Rows         []Row          `json:"-"`
}

// New builds a dataset from parsed headers and rows. Both reserved columns
// must be present in headers; every row is completed with an empty string
// for any header it lacks.
func New(name string, headers []string, rows []Row, columns ColumnMapping) (*Dataset, error) {
	cleaned := make([]string, len(headers))
	present := make(map[string]bool, len(headers))
	for i, h := range headers {
		cleaned[i] = strings.TrimSpace(h)
		present[cleaned[i]] = true
	}

	for _, required := range []string{columns.FraudFlag, columns.SessionID} {
		if !present[required] {
			return nil, core.NewMissingColumnError(required)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no data rows", core.ErrEmptyFile, name)
	}

	completed := make([]Row, len(rows))
	for i, row := range rows {
		r := make(Row, len(cleaned))
		for _, h := range cleaned {
			r[h] = row[h]
		}
		completed[i] = r
	}

	variables := make([]string, 0, len(cleaned))
	for _, h := range cleaned {
		if h == "" || columns.IsReserved(h) {
			continue
		}
		variables = append(variables, h)
	}

	return &Dataset{
		ID:           core.NewDatasetID(),
		Name:         name,
		Headers:      cleaned,
		Variables:    variables,
		TotalRecords: len(completed),
		Columns:      columns,
		Rows:         completed,
	}, nil
}

// HasVariable reports whether name is an analyzable column of the dataset
func (d *Dataset) HasVariable(name string) bool {
	for _, v := range d.Variables {
		if v == name {
			return true
		}
	}
	return false
}
