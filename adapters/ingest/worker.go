package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fraudlens/domain/core"
	"fraudlens/domain/dataset"
	"fraudlens/internal"
	"fraudlens/ports"
)

// ErrWorkerClosed is returned for requests made after Close
var ErrWorkerClosed = errors.New("ingest worker closed")

type request struct {
	name  string
	data  []byte
	reply chan ports.IngestOutcome
}

// Worker parses uploads on background goroutines. Each request carries its
// own bytes and receives a freshly built dataset; workers share no state
// beyond the stateless reader.
type Worker struct {
	reader   ports.DatasetReader
	requests chan request
	done     chan struct{}
	limit    int
	log      *internal.TaggedLogger
	once     sync.Once
	wg       sync.WaitGroup
}

// NewWorker starts size parsing goroutines
func NewWorker(reader ports.DatasetReader, size int, logger *internal.Logger) *Worker {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	w := &Worker{
		reader:   reader,
		requests: make(chan request),
		done:     make(chan struct{}),
		limit:    size,
		log:      logger.Tagged("IngestWorker"),
	}
	for i := 0; i < size; i++ {
		w.wg.Add(1)
		go w.loop(i)
	}
	return w
}

func (w *Worker) loop(id int) {
	defer w.wg.Done()
	for {
		select {
		case req := <-w.requests:
			req.reply <- w.parse(id, req)
		case <-w.done:
			return
		}
	}
}

func (w *Worker) parse(id int, req request) (out ports.IngestOutcome) {
	out.Name = req.name
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("worker %d: panic parsing %s: %v", id, req.name, r)
			out.Dataset = nil
			out.Err = core.NewParseError(req.name, fmt.Errorf("%v", r))
		}
	}()

	start := time.Now()
	out.Dataset, out.Err = w.reader.Read(req.name, bytes.NewReader(req.data))
	if out.Err != nil {
		w.log.Warn("worker %d: %s rejected: %v", id, req.name, out.Err)
		return out
	}
	w.log.Debug("worker %d: %s parsed in %s", id, req.name, time.Since(start))
	return out
}

// Ingest sends one file to a background goroutine and waits for its dataset.
// When ctx ends first the result is abandoned.
func (w *Worker) Ingest(ctx context.Context, name string, data []byte) (*dataset.Dataset, error) {
	reply := make(chan ports.IngestOutcome, 1)
	select {
	case w.requests <- request{name: name, data: data, reply: reply}:
	case <-w.done:
		return nil, ErrWorkerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case out := <-reply:
		return out.Dataset, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IngestAll parses files concurrently and returns one outcome per file in
// input order. A failing file never cancels the others.
func (w *Worker) IngestAll(ctx context.Context, files []ports.FileUpload) []ports.IngestOutcome {
	outcomes := make([]ports.IngestOutcome, len(files))

	var g errgroup.Group
	g.SetLimit(w.limit)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			ds, err := w.Ingest(ctx, file.Name, file.Data)
			outcomes[i] = ports.IngestOutcome{Name: file.Name, Dataset: ds, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
		}
	}
	w.log.Info("ingested %d files (%d failed)", len(files), failed)
	return outcomes
}

// Close stops the parsing goroutines
func (w *Worker) Close() {
	w.once.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
}

var _ ports.Ingestor = (*Worker)(nil)
var _ ports.DatasetReader = (*DataReader)(nil)
