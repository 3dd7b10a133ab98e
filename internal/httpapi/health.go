package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceVersion = "1.0.0"

// HealthResponse is the GET /health body (spec §6).
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: serviceVersion, Timestamp: time.Now()})
}

// ComponentStatus reports one dependency's reachability (SPEC_FULL.md §4,
// ported from original_source/src/api/routers/health.py).
type ComponentStatus struct {
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// HealthDetailedResponse is the GET /health/detailed body.
type HealthDetailedResponse struct {
	HealthResponse
	Components map[string]ComponentStatus `json:"components"`
}

func (s *Server) handleHealthDetailed(c *gin.Context) {
	components := map[string]ComponentStatus{}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if _, err := s.c.VectorStore.Count(ctx); err != nil {
		components["vector_store"] = ComponentStatus{Status: "unhealthy", Detail: err.Error()}
		s.c.VectorDBMonitor.RecordCheck(false, err.Error())
	} else {
		components["vector_store"] = ComponentStatus{Status: "healthy"}
		s.c.VectorDBMonitor.RecordCheck(true, "")
	}

	if s.c.Settings.OpenAIAPIKey == "" {
		components["embedding_provider"] = ComponentStatus{Status: "unconfigured", Detail: "no API key set"}
	} else {
		components["embedding_provider"] = ComponentStatus{Status: "configured"}
	}

	overall := "ok"
	for _, cs := range components {
		if cs.Status == "unhealthy" {
			overall = "degraded"
		}
	}

	c.JSON(http.StatusOK, HealthDetailedResponse{
		HealthResponse: HealthResponse{Status: overall, Version: serviceVersion, Timestamp: time.Now()},
		Components:     components,
	})
}
