package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kode4food/tartan/internal/artifact"
	"github.com/kode4food/tartan/internal/engine"
	"github.com/kode4food/tartan/internal/events"
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/util"
)

type (
	// Server implements the HTTP API server for the orchestrator
	Server struct {
		engine  *engine.Engine
		bus     *events.Bus
		pinger  Pinger
		sockets util.Set[*Client]
		mu      sync.Mutex
	}

	// Pinger reports whether a backing service is reachable
	Pinger interface {
		Ping(context.Context) error
	}
)

var (
	ErrInvalidJSON  = errors.New("invalid JSON")
	ErrInvalidLimit = errors.New("invalid limit")
)

// NewServer creates a new HTTP API server. The pinger is optional and is
// consulted by the health endpoint
func NewServer(eng *engine.Engine, bus *events.Bus, pinger Pinger) *Server {
	return &Server{
		engine:  eng,
		bus:     bus,
		pinger:  pinger,
		sockets: util.Set[*Client]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(_ *gin.Context, _ *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	router.GET("/health", s.handleHealth)

	eng := router.Group("/engine")
	{
		// Flow endpoints
		eng.GET("/flow", s.listFlows)
		eng.GET("/flow/:flowID", s.getFlow)
		eng.PUT("/flow/:flowID", s.putFlow)

		// Project endpoints
		prj := eng.Group("/project/:projectID")
		prj.GET("", s.getProject)
		prj.PUT("", s.putProject)
		prj.POST("/execute", s.executeProject)
		prj.POST("/resume", s.resumeProject)
		prj.POST("/plan", s.planProject)
		prj.GET("/checkpoint", s.getCheckpoint)

		// Artifact endpoints
		prj.GET("/artifact", s.listArtifacts)
		prj.GET("/artifact/:artifactID", s.getArtifact)
		prj.GET("/artifact/:artifactID/dependencies", s.getDependencies)
		prj.GET("/artifact/:artifactID/content", s.getContent)
		prj.GET("/node/:nodeID/artifact", s.listNodeArtifacts)

		// WebSocket
		eng.GET("/ws", s.handleWebSocket)
	}

	return router
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// errorStatus maps engine errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, api.ErrProjectNotFound),
		errors.Is(err, api.ErrFlowNotFound),
		errors.Is(err, api.ErrNodeNotFound),
		errors.Is(err, api.ErrArtifactNotFound),
		errors.Is(err, api.ErrCheckpointNotFound),
		errors.Is(err, artifact.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrGraphParse),
		errors.Is(err, api.ErrCyclicGraph),
		errors.Is(err, engine.ErrProjectFlowEmpty),
		errors.Is(err, engine.ErrProjectIDEmpty),
		errors.Is(err, engine.ErrFlowIDEmpty),
		errors.Is(err, artifact.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrCheckpointConflict):
		return http.StatusConflict
	case errors.Is(err, api.ErrFlowExecution):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNoArtifactStorage):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

func writeBadRequest(c *gin.Context, sentinel error, err error) {
	c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Error:  sentinel.Error() + ": " + err.Error(),
		Status: http.StatusBadRequest,
	})
}

// bindOptionalJSON binds a request body if one was sent
func bindOptionalJSON(c *gin.Context, target any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(target); err != nil {
		writeBadRequest(c, ErrInvalidJSON, err)
		return false
	}
	return true
}
