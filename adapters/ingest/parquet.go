package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

const parquetBatch = 256

// readParquet flattens a Parquet file into header-first string rows. Leaf
// columns become headers (nested paths joined with dots) and null cells
// become empty strings.
func readParquet(data []byte) ([][]string, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	paths := f.Schema().Columns()
	headers := make([]string, len(paths))
	for i, path := range paths {
		headers[i] = strings.Join(path, ".")
	}

	out := make([][]string, 0, f.NumRows()+1)
	out = append(out, headers)

	buf := make([]parquet.Row, parquetBatch)
	for _, group := range f.RowGroups() {
		rows := group.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				out = append(out, parquetCells(row, len(headers)))
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to read row group: %w", err)
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("failed to close row group: %w", err)
		}
	}
	return out, nil
}

func parquetCells(row parquet.Row, width int) []string {
	cells := make([]string, width)
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= width || v.IsNull() {
			continue
		}
		if cells[col] != "" {
			// repeated leaf: keep the first value
			continue
		}
		cells[col] = formatValue(v)
	}
	return cells
}

func formatValue(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return "1"
		}
		return "0"
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}
	return v.String()
}
