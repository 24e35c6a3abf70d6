/*
PURPOSE:
  JSON HTTP surface over the llm-matrix core, for dashboards and scripts
  that upload provider/question configuration and read results back.

REQUIREMENTS:
  User-specified:
  - Expose the provider catalog, preflight (JSON and CSV) and matrix runs.
  - Accept configuration as structured JSON or as raw uploaded YAML.

  Implementation-discovered:
  - One run identifier per server session, like one per UI session.
  - Matrix runs must never interleave; a second run gets 409.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (serve)
  - Uses: internal/config, internal/engine, internal/output, internal/provider

ERROR HANDLING:
  - Bad input is a 400 with {"error": ...}. Per-call failures are data, not HTTP errors.

IMPLEMENTATION RULES:
  - Handlers stay thin; all behaviour lives in internal/engine.

USAGE:
  srv := server.New(cfg, e, writer)
  http.ListenAndServe(":8080", srv.Router())

RELATED FILES:
  - internal/server/handlers.go
  - internal/cli/serve.go
*/

package server

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daryltucker/llm-matrix/internal/config"
	"github.com/daryltucker/llm-matrix/internal/engine"
	"github.com/daryltucker/llm-matrix/internal/output"
)

// Server holds the session state shared by all handlers.
type Server struct {
	cfg    *config.Config
	engine *engine.Engine
	writer *output.JSONWriter
	// running serializes matrix runs.
	running sync.Mutex
}

// New creates a Server. writer fixes the export directory and run id for the session.
func New(cfg *config.Config, e *engine.Engine, writer *output.JSONWriter) *Server {
	return &Server{cfg: cfg, engine: e, writer: writer}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/providers", s.providers)
		api.POST("/preflight", s.preflight)
		api.POST("/preflight.csv", s.preflightCSV)
		api.POST("/matrix", s.matrix)
	}
	return router
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		output.Logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
