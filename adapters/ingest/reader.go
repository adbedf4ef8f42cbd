// Package ingest parses uploaded CSV, XLSX and Parquet files into datasets
// and runs that parsing off the caller's goroutine.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fraudlens/domain/core"
	"fraudlens/domain/dataset"
	"fraudlens/internal"
)

var logger = internal.DefaultLogger.Tagged("DataReader")

// Supported file kinds, keyed by lower-case extension
const (
	KindCSV     = ".csv"
	KindXLSX    = ".xlsx"
	KindParquet = ".parquet"
)

// DataReader turns one named upload into a dataset. It is stateless and safe
// for concurrent use.
type DataReader struct {
	columns  dataset.ColumnMapping
	maxBytes int64
}

// NewDataReader creates a reader for the given reserved columns. A maxBytes
// of zero or less disables the size limit.
func NewDataReader(columns dataset.ColumnMapping, maxBytes int64) *DataReader {
	return &DataReader{columns: columns, maxBytes: maxBytes}
}

// Supported reports whether name has an extension the reader can parse
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case KindCSV, KindXLSX, KindParquet:
		return true
	}
	return false
}

// Read parses r according to the extension of name
func (r *DataReader) Read(name string, src io.Reader) (*dataset.Dataset, error) {
	start := time.Now()
	ext := strings.ToLower(filepath.Ext(name))
	if !Supported(name) {
		return nil, core.NewParseError(name, fmt.Errorf("unsupported file type %q", ext))
	}

	data, err := r.readLimited(name, src)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptyFile, name)
	}

	var rows [][]string
	switch ext {
	case KindCSV:
		rows, err = readCSV(data)
	case KindXLSX:
		rows, err = readExcel(data)
	case KindParquet:
		rows, err = readParquet(data)
	}
	if err != nil {
		return nil, core.NewParseError(name, err)
	}

	ds, err := r.processRows(name, rows)
	if err != nil {
		return nil, err
	}
	ds.Fingerprint = core.NewHash(data)
	logger.Info("%s read in %.2fms (%d columns, %d rows)",
		name, float64(time.Since(start).Nanoseconds())/1e6, len(ds.Headers), ds.TotalRecords)
	return ds, nil
}

func (r *DataReader) readLimited(name string, src io.Reader) ([]byte, error) {
	if r.maxBytes <= 0 {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, core.NewParseError(name, err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return nil, core.NewParseError(name, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, core.NewParseError(name, fmt.Errorf("file exceeds %d bytes", r.maxBytes))
	}
	return data, nil
}

// processRows converts raw string rows, header first, into a dataset
func (r *DataReader) processRows(name string, rows [][]string) (*dataset.Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", core.ErrEmptyFile, name)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	dataRows := make([]dataset.Row, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		if blank(raw) {
			continue
		}
		row := make(dataset.Row, len(headers))
		for j, cell := range raw {
			if j < len(headers) {
				row[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, row)
	}

	return dataset.New(name, headers, dataRows, r.columns)
}

func blank(raw []string) bool {
	for _, cell := range raw {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

// readExcel reads the first sheet of a workbook
func readExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	logger.Debug("sheet %s read (%d rows)", sheets[0], len(rows))
	return rows, nil
}
