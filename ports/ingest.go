package ports

import (
	"context"
	"io"

	"fraudlens/domain/dataset"
)

// DatasetReader parses one uploaded file into an immutable dataset
type DatasetReader interface {
	Read(name string, r io.Reader) (*dataset.Dataset, error)
}

// FileUpload is a named blob handed to the ingestion worker
type FileUpload struct {
	Name string
	Data []byte
}

// IngestOutcome is the result of parsing one file. Exactly one of Dataset and
// Err is set.
type IngestOutcome struct {
	Name    string
	Dataset *dataset.Dataset
	Err     error
}

// Ingestor parses uploads off the caller's goroutine
type Ingestor interface {
	Ingest(ctx context.Context, name string, data []byte) (*dataset.Dataset, error)
	IngestAll(ctx context.Context, files []FileUpload) []IngestOutcome
}
