package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const statsWindow = time.Hour

// MonitoringStatsResponse is the GET /monitoring/stats response body
// (spec §6, ported from APIMonitor/PerformanceMetrics.get_statistics).
type MonitoringStatsResponse struct {
	API    interface{} `json:"api"`
	Search interface{} `json:"search"`
	LLM    interface{} `json:"llm"`
	Cache  interface{} `json:"cache"`
}

func (s *Server) handleMonitoringStats(c *gin.Context) {
	c.JSON(http.StatusOK, MonitoringStatsResponse{
		API:    s.c.APIMonitor.Statistics(),
		Search: s.c.PerformanceMetrics.SearchStats(statsWindow),
		LLM:    s.c.PerformanceMetrics.LLMStats(statsWindow),
		Cache:  s.c.Cache.StatsSnapshot(),
	})
}

func (s *Server) handleMonitoringVectorDB(c *gin.Context) {
	count, err := s.c.VectorStore.Count(c.Request.Context())
	healthy := err == nil
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	s.c.VectorDBMonitor.RecordCheck(healthy, errMsg)

	c.JSON(http.StatusOK, gin.H{
		"document_count": count,
		"stats":          s.c.VectorDBMonitor.Stats(),
	})
}
