// Package ui exposes the analysis workspace over HTTP. Every gesture runs
// under one lock so the workspace sees the same serialized stream of events
// a single UI thread would produce.
package ui

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"fraudlens/internal"
	"fraudlens/internal/config"
	"fraudlens/internal/dashboard"
	"fraudlens/internal/export"
	"fraudlens/ports"
)

// Server represents the web server for the fraud dashboard
type Server struct {
	router   *gin.Engine
	cfg      *config.Config
	ingestor ports.Ingestor
	log      *internal.TaggedLogger
	now      func() time.Time

	mu        sync.Mutex
	workspace *dashboard.Workspace
}

// NewServer creates a server around workspace. Uploads are parsed by ingestor.
func NewServer(cfg *config.Config, workspace *dashboard.Workspace, ingestor ports.Ingestor, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:    gin.New(),
		cfg:       cfg,
		ingestor:  ingestor,
		log:       logger.Tagged("Server"),
		now:       time.Now,
		workspace: workspace,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the router for use in an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.MaxMultipartMemory = s.cfg.Ingest.MaxUploadBytes()
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/datasets", s.handleListDatasets)
		api.POST("/datasets", s.handleUploadDatasets)
		api.DELETE("/datasets/:id", s.handleRemoveDataset)

		api.GET("/charts", s.handleListCharts)
		api.POST("/charts", s.handleAddChart)
		api.GET("/charts/:id", s.handleGetChart)
		api.DELETE("/charts/:id", s.handleRemoveChart)
		api.PUT("/charts/:id/dataset", s.handleSelectDataset)
		api.PUT("/charts/:id/variable", s.handleSelectVariable)
		api.PUT("/charts/:id/bins", s.handleSetBinCount)
		api.PUT("/charts/:id/type", s.handleSetChartType)
		api.PUT("/charts/:id/color", s.handleSetColor)
		api.POST("/charts/:id/brush", s.handleBrush)
		api.POST("/charts/:id/reset", s.handleResetZoom)
		api.GET("/charts/:id/export.csv", s.handleExportCSV)
		api.GET("/charts/:id/export.html", s.handleExportHTML)

		api.POST("/export.png", s.handleExportPNG)
		api.POST("/merge", s.handleMerge)
		api.GET("/merged/:id", s.handleGetMerged)
		api.DELETE("/merged/:id", s.handleRemoveMerged)
		api.POST("/merged/:id/brush", s.handleBrushMerged)
		api.POST("/merged/:id/reset", s.handleResetMergedZoom)
		api.GET("/status", s.handleStatus)
	}
}

// withWorkspace runs fn while holding the workspace lock
func (s *Server) withWorkspace(fn func(ws *dashboard.Workspace)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.workspace)
}

func (s *Server) canvas() export.Canvas {
	return export.CanvasFromConfig(s.cfg.Chart)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	var status []dashboard.StatusMessage
	s.withWorkspace(func(ws *dashboard.Workspace) { status = ws.Status() })
	c.JSON(http.StatusOK, gin.H{"messages": status, "count": len(status)})
}
