package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/tartan/pkg/api"
)

var contentTypes = map[string]string{
	api.ArtifactTypeMarkdown: "text/markdown; charset=utf-8",
	api.ArtifactTypeJSON:     "application/json",
	api.ArtifactTypeHTML:     "text/html; charset=utf-8",
	api.ArtifactTypeText:     "text/plain; charset=utf-8",
}

const defaultContentType = "application/octet-stream"

func artifactID(c *gin.Context) api.ArtifactID {
	return api.ArtifactID(c.Param("artifactID"))
}

func (s *Server) listArtifacts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Error:  ErrInvalidLimit.Error() + ": " + raw,
				Status: http.StatusBadRequest,
			})
			return
		}
		limit = n
	}

	entries, err := s.engine.ListArtifacts(
		c.Request.Context(), projectID(c), limit,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	writeArtifacts(c, entries)
}

func (s *Server) getArtifact(c *gin.Context) {
	entry, err := s.engine.GetArtifact(
		c.Request.Context(), projectID(c), artifactID(c),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) getDependencies(c *gin.Context) {
	deps, err := s.engine.ArtifactDependencies(
		c.Request.Context(), projectID(c), artifactID(c),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	writeArtifacts(c, deps)
}

func (s *Server) getContent(c *gin.Context) {
	entry, data, err := s.engine.ArtifactContent(
		c.Request.Context(), projectID(c), artifactID(c),
	)
	if err != nil {
		writeError(c, err)
		return
	}

	ct, ok := contentTypes[entry.Type]
	if !ok {
		ct = defaultContentType
	}
	c.Data(http.StatusOK, ct, data)
}

func (s *Server) listNodeArtifacts(c *gin.Context) {
	entries, err := s.engine.NodeArtifacts(
		c.Request.Context(), projectID(c), api.NodeID(c.Param("nodeID")),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	writeArtifacts(c, entries)
}

func writeArtifacts(c *gin.Context, entries []*api.ArtifactEntry) {
	if entries == nil {
		entries = []*api.ArtifactEntry{}
	}
	c.JSON(http.StatusOK, api.ArtifactsListResponse{
		Artifacts: entries,
		Count:     len(entries),
	})
}
