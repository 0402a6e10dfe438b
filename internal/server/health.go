package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/tartan"
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

func (s *Server) handleHealth(c *gin.Context) {
	res := api.HealthResponse{
		Service: tartan.Name,
		Version: tartan.Version,
		Status:  healthOK,
	}
	if s.pinger == nil {
		c.JSON(http.StatusOK, res)
		return
	}
	if err := s.pinger.Ping(c.Request.Context()); err != nil {
		slog.Warn("Health check failed", log.Error(err))
		res.Status = healthDegraded
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
