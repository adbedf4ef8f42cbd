package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudlens/domain/core"
	"fraudlens/domain/dataset"
	"fraudlens/internal"
	"fraudlens/ports"
)

func TestWorker_Ingest(t *testing.T) {
	w := NewWorker(newTestReader(), 2, nil)
	defer w.Close()

	ds, err := w.Ingest(context.Background(), "tx.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, ds.TotalRecords)

	_, err = w.Ingest(context.Background(), "bad.csv", []byte("amount\n1\n"))
	assert.True(t, errors.Is(err, core.ErrMissingColumn))
}

func TestWorker_IngestAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	w := NewWorker(newTestReader(), 3, nil)
	defer w.Close()

	var files []ports.FileUpload
	for i := 0; i < 8; i++ {
		content := fmt.Sprintf("sessionid,fraud_combined,v\ns,%d,%d\n", i%2, i)
		if i == 5 {
			content = "v\n1\n"
		}
		files = append(files, ports.FileUpload{Name: fmt.Sprintf("f%d.csv", i), Data: []byte(content)})
	}

	outcomes := w.IngestAll(context.Background(), files)
	require.Len(t, outcomes, len(files))
	for i, out := range outcomes {
		assert.Equal(t, files[i].Name, out.Name)
		if i == 5 {
			assert.Nil(t, out.Dataset)
			assert.True(t, errors.Is(out.Err, core.ErrMissingColumn))
			continue
		}
		require.NoError(t, out.Err)
		assert.Equal(t, fmt.Sprint(i), out.Dataset.Rows[0]["v"])
	}
}

type panickyReader struct{}

func (panickyReader) Read(string, io.Reader) (*dataset.Dataset, error) {
	panic("corrupt input")
}

func TestWorker_RecoversFromPanics(t *testing.T) {
	w := NewWorker(panickyReader{}, 1, nil)
	defer w.Close()

	_, err := w.Ingest(context.Background(), "x.csv", nil)
	assert.True(t, errors.Is(err, core.ErrParse))

	// the worker goroutine survives
	_, err = w.Ingest(context.Background(), "y.csv", nil)
	assert.True(t, errors.Is(err, core.ErrParse))
}

type blockingReader struct{ release chan struct{} }

func (b blockingReader) Read(string, io.Reader) (*dataset.Dataset, error) {
	<-b.release
	return nil, core.ErrEmptyFile
}

func TestWorker_ContextCancellation(t *testing.T) {
	reader := blockingReader{release: make(chan struct{})}
	w := NewWorker(reader, 1, nil)
	defer w.Close()
	defer close(reader.release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := w.Ingest(ctx, "slow.csv", nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWorker_Closed(t *testing.T) {
	w := NewWorker(newTestReader(), 1, nil)
	w.Close()
	w.Close()

	_, err := w.Ingest(context.Background(), "a.csv", []byte(sampleCSV))
	assert.True(t, errors.Is(err, ErrWorkerClosed))
}

func TestWorker_LogsUnderItsOwnTag(t *testing.T) {
	var buf bytes.Buffer
	logger := internal.NewWriterLogger(internal.LogLevelDebug, &buf)
	w := NewWorker(newTestReader(), 1, logger)
	defer w.Close()

	w.IngestAll(context.Background(), []ports.FileUpload{
		{Name: "tx.csv", Data: []byte(sampleCSV)},
		{Name: "bad.csv", Data: []byte("amount\n1\n")},
	})

	out := buf.String()
	assert.Contains(t, out, "[INFO] [IngestWorker] ingested 2 files (1 failed)")
	assert.Contains(t, out, "[WARN] [IngestWorker] worker 0: bad.csv rejected")
	assert.NotContains(t, out, "[DataReader] ingested")
}
