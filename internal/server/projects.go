package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/tartan/internal/engine/execopt"
	"github.com/kode4food/tartan/pkg/api"
)

// projectID returns the canonical form of the path's project ID, the same
// form PUT stores projects under
func projectID(c *gin.Context) api.ProjectID {
	return api.SanitizeID(api.ProjectID(c.Param("projectID")))
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.engine.GetProject(c.Request.Context(), projectID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) putProject(c *gin.Context) {
	var p api.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		writeBadRequest(c, ErrInvalidJSON, err)
		return
	}

	p.ID = projectID(c)
	if err := s.engine.UpdateProject(c.Request.Context(), &p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, &p)
}

func (s *Server) executeProject(c *gin.Context) {
	var req api.ExecuteRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	var opts []execopt.Applier
	if req.ResumeFrom != "" {
		opts = append(opts, execopt.WithResumeFrom(req.ResumeFrom))
	}
	if req.PreserveArtifacts != nil {
		opts = append(opts,
			execopt.WithPreserveArtifacts(*req.PreserveArtifacts),
		)
	}
	if req.MaxRetries != 0 {
		opts = append(opts, execopt.WithMaxRetries(req.MaxRetries))
	}

	sum, err := s.engine.Execute(c.Request.Context(),
		projectID(c), req.WorkspaceID, req.ActorID, opts...,
	)
	if err != nil {
		writeExecutionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) resumeProject(c *gin.Context) {
	var req api.ResumeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	sum, err := s.engine.ResumeFromCheckpoint(
		c.Request.Context(), projectID(c), req.WorkspaceID,
	)
	if err != nil {
		writeExecutionError(c, err)
		return
	}
	if sum == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) planProject(c *gin.Context) {
	var req api.PlanRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	plan, err := s.engine.Plan(
		c.Request.Context(), projectID(c), req.ResumeFrom,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) getCheckpoint(c *gin.Context) {
	cp, err := s.engine.GetCheckpoint(c.Request.Context(), projectID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func writeExecutionError(c *gin.Context, err error) {
	var fe *api.FlowExecutionError
	if !errors.As(err, &fe) {
		writeError(c, err)
		return
	}
	status := errorStatus(err)
	c.JSON(status, api.ExecutionFailedResponse{
		Error:      err.Error(),
		FailedNode: fe.NodeID,
		Status:     status,
	})
}
