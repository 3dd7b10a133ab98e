package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"legal-rag-service/internal/apierrors"
)

// IndexRequest is the POST /admin/index body (spec §6).
type IndexRequest struct {
	Directory string `json:"directory" binding:"required"`
	Pattern   string `json:"pattern"`
	Chunk     bool   `json:"chunk"`
}

// IndexResponse mirrors index_directory's aggregate summary (spec §6).
type IndexResponse struct {
	Success bool        `json:"success"`
	Total   int         `json:"total"`
	Indexed int         `json:"indexed"`
	Failed  int         `json:"failed"`
	Details interface{} `json:"details"`
}

func (s *Server) handleAdminIndex(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logError(c, apierrors.Validation("invalid index request", map[string]interface{}{"error": err.Error()}))
		return
	}
	result, err := s.c.Indexer.IndexDirectory(c.Request.Context(), req.Directory, req.Pattern, req.Chunk, true)
	if err != nil {
		s.logError(c, apierrors.VectorStore("indexing failed", err))
		return
	}
	c.JSON(http.StatusOK, IndexResponse{
		Success: result.Failed == 0,
		Total:   result.Total,
		Indexed: result.Success,
		Failed:  result.Failed,
		Details: result.Details,
	})
}

// IncrementalResponse is the POST /admin/index/incremental response body
// (spec §6).
type IncrementalResponse struct {
	Total   int         `json:"total"`
	New     int         `json:"new"`
	Updated int         `json:"updated"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	Details interface{} `json:"details"`
}

func (s *Server) handleAdminIndexIncremental(c *gin.Context) {
	directory := c.Query("directory")
	pattern := c.Query("pattern")
	if directory == "" {
		s.logError(c, apierrors.Validation("directory query parameter is required", nil))
		return
	}
	force := c.Query("force") == "true"
	result, err := s.c.Incremental.UpdateIncremental(c.Request.Context(), directory, pattern, force)
	if err != nil {
		s.logError(c, apierrors.VectorStore("incremental update failed", err))
		return
	}
	c.JSON(http.StatusOK, IncrementalResponse{
		Total: result.Total, New: result.New, Updated: result.Updated,
		Skipped: result.Skipped, Failed: result.Failed, Details: result.Details,
	})
}

func (s *Server) handleAdminIndexStatus(c *gin.Context) {
	status, err := s.c.Incremental.Status(c.Request.Context())
	if err != nil {
		s.logError(c, apierrors.VectorStore("failed to read index status", err))
		return
	}
	health := "healthy"
	if status.VectorDBCount == 0 {
		health = "empty"
	} else if status.VectorDBCount < status.IndexedCount {
		health = "inconsistent"
	}
	c.JSON(http.StatusOK, gin.H{
		"health":          health,
		"indexed_count":   status.IndexedCount,
		"vector_db_count": status.VectorDBCount,
	})
}

func (s *Server) handleAdminIndexReset(c *gin.Context) {
	if err := s.c.VectorStore.Reset(c.Request.Context()); err != nil {
		s.logError(c, apierrors.VectorStore("reset failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleAdminUpload(c *gin.Context) {
	if s.c.BlobStore == nil {
		s.logError(c, apierrors.Configuration("raw-document retention is not configured (no MinIO endpoint set)"))
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		s.logError(c, apierrors.Validation("file is required", map[string]interface{}{"error": err.Error()}))
		return
	}
	defer file.Close()

	path, err := s.c.BlobStore.Put(c.Request.Context(), header.Filename, header.Size, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.logError(c, apierrors.VectorStore("upload failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": path})
}
