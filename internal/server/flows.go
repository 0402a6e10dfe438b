package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/tartan/pkg/api"
)

// flowID returns the canonical form of the path's flow ID
func flowID(c *gin.Context) api.FlowID {
	return api.SanitizeID(api.FlowID(c.Param("flowID")))
}

func (s *Server) listFlows(c *gin.Context) {
	flows, err := s.engine.ListFlows(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: flows,
		Count: len(flows),
	})
}

func (s *Server) getFlow(c *gin.Context) {
	flow, err := s.engine.GetFlow(c.Request.Context(), flowID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow)
}

// putFlow replaces an existing flow through UpdateFlow, or creates it
// when the ID is unknown
func (s *Server) putFlow(c *gin.Context) {
	var flow api.Flow
	if err := c.ShouldBindJSON(&flow); err != nil {
		writeBadRequest(c, ErrInvalidJSON, err)
		return
	}

	ctx := c.Request.Context()
	flow.ID = flowID(c)
	err := s.engine.UpdateFlow(ctx, &flow)
	if err == nil {
		c.JSON(http.StatusOK, &flow)
		return
	}
	if !errors.Is(err, api.ErrFlowNotFound) {
		writeError(c, err)
		return
	}

	if err := s.engine.PutFlow(ctx, &flow); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, &flow)
}
