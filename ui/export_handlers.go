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

type exportRequest struct {
	ChartIDs  []string `json:"chart_ids"`
	MergedIDs []string `json:"merged_ids"`
}

type mergeRequest struct {
	ChartA string `json:"chart_a" binding:"required"`
	ChartB string `json:"chart_b" binding:"required"`
}

func mergedTitle(m *dashboard.MergedChart) string {
	return fmt.Sprintf("Merged: %s (%s vs %s)", m.Variable, m.Sources[0].DatasetName, m.Sources[1].DatasetName)
}

// panels renders the requested charts in request order. An empty request
// exports every chart that currently shows data.
func (s *Server) panels(ws *dashboard.Workspace, req exportRequest) ([]export.Panel, error) {
	canvas := s.canvas()
	var charts []*dashboard.Chart
	if len(req.ChartIDs) == 0 && len(req.MergedIDs) == 0 {
		for _, ch := range ws.Charts() {
			if ch.Analysis() != nil {
				charts = append(charts, ch)
			}
		}
	}
	for _, raw := range req.ChartIDs {
		ch, err := ws.Chart(core.ChartID(raw))
		if err != nil {
			return nil, err
		}
		charts = append(charts, ch)
	}

	panels := make([]export.Panel, 0, len(charts)+len(req.MergedIDs))
	for _, ch := range charts {
		img, err := export.RenderChart(ch, canvas)
		if err != nil {
			return nil, err
		}
		panels = append(panels, export.Panel{Title: ch.Title(), Image: img})
	}
	for _, raw := range req.MergedIDs {
		m, err := ws.MergedChart(core.MergedChartID(raw))
		if err != nil {
			return nil, err
		}
		img, err := export.RenderMerged(m, canvas)
		if err != nil {
			return nil, err
		}
		panels = append(panels, export.Panel{Title: mergedTitle(m), Image: img})
	}
	return panels, nil
}

func (s *Server) handleExportPNG(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	var (
		buf bytes.Buffer
		err error
	)
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var panels []export.Panel
		if panels, err = s.panels(ws, req); err != nil {
			err = ws.Fail(err)
			return
		}
		grid, gerr := export.ComposeGrid(panels)
		if gerr != nil {
			err = ws.Fail(gerr)
			return
		}
		if err = export.WritePNG(&buf, grid); err != nil {
			return
		}
		ws.Info("Exported %d charts", len(panels))
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.ExportFileName(s.now())))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleMerge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var (
		snap dashboard.MergedChart
		err  error
	)
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var m *dashboard.MergedChart
		if m, err = ws.Merge(core.ChartID(req.ChartA), core.ChartID(req.ChartB)); err == nil {
			snap = *m
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (s *Server) handleGetMerged(c *gin.Context) {
	id, err := core.ParseMergedChartID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}
	var snap dashboard.MergedChart
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var m *dashboard.MergedChart
		if m, err = ws.MergedChart(id); err == nil {
			snap = *m
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// mergedGestureResponse is returned by merged-chart zoom gestures
type mergedGestureResponse struct {
	Merged  dashboard.MergedChart `json:"merged"`
	Applied bool                  `json:"applied"`
}

func (s *Server) handleRemoveMerged(c *gin.Context) {
	id, err := core.ParseMergedChartID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}
	s.withWorkspace(func(ws *dashboard.Workspace) { err = ws.RemoveMerged(id) })
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleBrushMerged(c *gin.Context) {
	var req brushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Lo == nil || req.Hi == nil {
		respondError(c, apperrors.InvalidInput("brush needs both lo and hi"))
		return
	}
	s.mergedZoomGesture(c, func(ws *dashboard.Workspace, id core.MergedChartID) (*dashboard.MergedChart, bool, error) {
		return ws.BrushMerged(id, *req.Lo, *req.Hi)
	})
}

func (s *Server) handleResetMergedZoom(c *gin.Context) {
	s.mergedZoomGesture(c, func(ws *dashboard.Workspace, id core.MergedChartID) (*dashboard.MergedChart, bool, error) {
		m, err := ws.ResetMergedZoom(id)
		return m, err == nil, err
	})
}

func (s *Server) mergedZoomGesture(c *gin.Context, fn func(ws *dashboard.Workspace, id core.MergedChartID) (*dashboard.MergedChart, bool, error)) {
	id, err := core.ParseMergedChartID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}
	var resp mergedGestureResponse
	s.withWorkspace(func(ws *dashboard.Workspace) {
		var m *dashboard.MergedChart
		m, resp.Applied, err = fn(ws, id)
		if err == nil {
			resp.Merged = *m
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
