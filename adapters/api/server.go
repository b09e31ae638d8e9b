package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"martisim/adapters/excel"
	"martisim/adapters/report"
	"martisim/app"
	"martisim/domain/mode"
	"martisim/internal"
	ssehub "martisim/internal/api"
)

// Server is the HTTP front end of the simulator
type Server struct {
	router *gin.Engine

	sim      *app.SimulationService
	runs     *app.RunService
	hub      *ssehub.SSEHub
	modes    []mode.Mode
	markdown *report.MarkdownRenderer
	excel    *excel.TrajectoryWriter
	logger   *internal.Logger
}

// Dependencies wires a Server
type Dependencies struct {
	Simulation *app.SimulationService
	Runs       *app.RunService
	Hub        *ssehub.SSEHub
	Modes      []mode.Mode
	Markdown   *report.MarkdownRenderer
	Excel      *excel.TrajectoryWriter
	Logger     *internal.Logger
}

// NewServer creates a server with its middleware and routes installed
func NewServer(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}
	if deps.Markdown == nil {
		deps.Markdown = report.NewMarkdownRenderer()
	}
	if deps.Excel == nil {
		deps.Excel = excel.NewTrajectoryWriter(excel.DefaultWriterConfig())
	}

	s := &Server{
		router:   gin.New(),
		sim:      deps.Simulation,
		runs:     deps.Runs,
		hub:      deps.Hub,
		modes:    deps.Modes,
		markdown: deps.Markdown,
		excel:    deps.Excel,
		logger:   deps.Logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/modes", s.handleModes)
		api.POST("/simulate", s.handleSimulate)

		api.POST("/runs", s.handleSubmitRun)
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)
		api.GET("/runs/:id/events", s.handleRunEvents)
	}

	// Report pages are plain net/http handlers on a chi router
	reports := http.StripPrefix("/reports", newReportRouter(s.runs, s.markdown, s.excel, s.logger))
	s.router.GET("/reports/*path", gin.WrapH(reports))
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs each request once it has been served
func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		case status >= http.StatusBadRequest:
			logger.Warn("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		default:
			logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		}
	}
}
