package ui

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fraudlens/domain/core"
	"fraudlens/internal/dashboard"
	apperrors "fraudlens/internal/errors"
	"fraudlens/internal/export"
)

type selectDatasetRequest struct {
	DatasetID string `json:"dataset_id" binding:"required"`
}

type selectVariableRequest struct {
	Variable string `json:"variable" binding:"required"`
}

type binCountRequest struct {
	BinCount int `json:"bin_count" binding:"required"`
}

type chartTypeRequest struct {
	ChartType *dashboard.ChartType `json:"chart_type" binding:"required"`
}

type colorRequest struct {
	Color string `json:"color" binding:"required"`
}

type brushRequest struct {
	Lo *float64 `json:"lo"`
	Hi *float64 `json:"hi"`
}

// gestureResponse is returned by gestures that may be ignored by the chart
type gestureResponse struct {
	Chart   dashboard.ChartSnapshot `json:"chart"`
	Applied bool                    `json:"applied"`
}

func chartID(c *gin.Context) (core.ChartID, bool) {
	id, err := core.ParseChartID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return "", false
	}
	return id, true
}

func (s *Server) handleListCharts(c *gin.Context) {
	var snaps []dashboard.ChartSnapshot
	s.withWorkspace(func(ws *dashboard.Workspace) {
		for _, ch := range ws.Charts() {
			snaps = append(snaps, ch.Snapshot())
		}
	})
	c.JSON(http.StatusOK, gin.H{"charts": snaps, "count": len(snaps)})
}

func (s *Server) handleAddChart(c *gin.Context) {
	var snap dashboard.ChartSnapshot
	s.withWorkspace(func(ws *dashboard.Workspace) { snap = ws.AddChart().Snapshot() })
	c.JSON(http.StatusCreated, snap)
}

func (s *Server) handleGetChart(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	var (
		snap dashboard.ChartSnapshot
		err  error
	)
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var ch *dashboard.Chart
		if ch, err = ws.Chart(id); err == nil {
			snap = ch.Snapshot()
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleRemoveChart(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	var err error
	s.withWorkspace(func(ws *dashboard.Workspace) { err = ws.RemoveChart(id) })
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// runGesture applies one chart gesture and replies with the resulting snapshot
func (s *Server) runGesture(c *gin.Context, fn func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, error)) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	var (
		snap dashboard.ChartSnapshot
		err  error
	)
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var ch *dashboard.Chart
		ch, err = fn(ws, id)
		if err == nil {
			snap = ch.Snapshot()
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleSelectDataset(c *gin.Context) {
	var req selectDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.runGesture(c, func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, error) {
		return ws.SelectDataset(id, core.DatasetID(req.DatasetID))
	})
}

func (s *Server) handleSelectVariable(c *gin.Context) {
	var req selectVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.runGesture(c, func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, error) {
		return ws.SelectVariable(id, req.Variable)
	})
}

func (s *Server) handleSetBinCount(c *gin.Context) {
	var req binCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.runGesture(c, func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, error) {
		return ws.SetBinCount(id, req.BinCount)
	})
}

func (s *Server) handleSetChartType(c *gin.Context) {
	var req chartTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.runGesture(c, func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, error) {
		return ws.SetChartType(id, *req.ChartType)
	})
}

func (s *Server) handleSetColor(c *gin.Context) {
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.runGesture(c, func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, error) {
		return ws.SetColor(id, req.Color)
	})
}

func (s *Server) handleBrush(c *gin.Context) {
	var req brushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Lo == nil || req.Hi == nil {
		respondError(c, apperrors.InvalidInput("brush needs both lo and hi"))
		return
	}
	s.zoomGesture(c, func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, bool, error) {
		return ws.Brush(id, *req.Lo, *req.Hi)
	})
}

func (s *Server) handleResetZoom(c *gin.Context) {
	s.zoomGesture(c, func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, bool, error) {
		return ws.ResetZoom(id)
	})
}

func (s *Server) zoomGesture(c *gin.Context, fn func(ws *dashboard.Workspace, id core.ChartID) (*dashboard.Chart, bool, error)) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	var (
		resp gestureResponse
		err  error
	)
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var ch *dashboard.Chart
		ch, resp.Applied, err = fn(ws, id)
		if err == nil {
			resp.Chart = ch.Snapshot()
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	var (
		buf      bytes.Buffer
		filename string
		err      error
	)
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var ch *dashboard.Chart
		if ch, err = ws.Chart(id); err != nil {
			return
		}
		if err = export.WriteChartCSV(&buf, ch); err != nil {
			err = ws.Fail(err)
			return
		}
		filename = fmt.Sprintf("%s-%s.csv", ch.Variable(), ch.ChartType())
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Server) handleExportHTML(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	var (
		buf bytes.Buffer
		err error
	)
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var ch *dashboard.Chart
		if ch, err = ws.Chart(id); err != nil {
			return
		}
		if err = export.WriteChartHTML(&buf, ch, s.canvas()); err != nil {
			err = ws.Fail(err)
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
