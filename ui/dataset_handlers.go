package ui

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fraudlens/domain/core"
	"fraudlens/domain/dataset"
	"fraudlens/internal/dashboard"
	apperrors "fraudlens/internal/errors"
	"fraudlens/ports"
)

// uploadResult reports what happened to one uploaded file
type uploadResult struct {
	Name    string           `json:"name"`
	Dataset *dataset.Dataset `json:"dataset,omitempty"`
	Error   string           `json:"error,omitempty"`
	Code    string           `json:"code,omitempty"`
}

func (s *Server) handleListDatasets(c *gin.Context) {
	var datasets []*dataset.Dataset
	s.withWorkspace(func(ws *dashboard.Workspace) { datasets = ws.Datasets() })
	c.JSON(http.StatusOK, gin.H{"datasets": datasets, "count": len(datasets)})
}

// handleUploadDatasets parses every file of the multipart field "files".
// Parsing happens outside the workspace lock; each outcome is then applied
// as its own gesture, so one bad file never blocks the others.
func (s *Server) handleUploadDatasets(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, fmt.Errorf("invalid multipart upload: %w", err))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		respondError(c, apperrors.InvalidInput(`no files in field "files"`))
		return
	}

	limit := s.cfg.Ingest.MaxUploadBytes()
	files := make([]ports.FileUpload, 0, len(headers))
	for _, fh := range headers {
		// an oversized file is read one byte past the limit and rejected by
		// the reader as that file's own parse error
		f, err := fh.Open()
		if err != nil {
			respondError(c, apperrors.Wrapf(err, "failed to open %s", fh.Filename))
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		f.Close()
		if err != nil {
			respondError(c, apperrors.Wrapf(err, "failed to read %s", fh.Filename))
			return
		}
		files = append(files, ports.FileUpload{Name: fh.Filename, Data: data})
	}

	s.log.Info("parsing %d uploaded files", len(files))
	outcomes := s.ingestor.IngestAll(c.Request.Context(), files)

	results := make([]uploadResult, len(outcomes))
	s.withWorkspace(func(ws *dashboard.Workspace) {
		for i, out := range outcomes {
			results[i].Name = out.Name
			if out.Err != nil {
				err := ws.Fail(out.Err)
				results[i].Error = err.Error()
				results[i].Code = apperrors.Classify(err)
				continue
			}
			ws.AddDataset(out.Dataset)
			results[i].Dataset = out.Dataset
		}
	})

	c.JSON(http.StatusOK, gin.H{"files": results})
}

func (s *Server) handleRemoveDataset(c *gin.Context) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}
	s.withWorkspace(func(ws *dashboard.Workspace) { err = ws.RemoveDataset(id) })
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
