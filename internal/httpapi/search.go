package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"legal-rag-service/internal/apierrors"
	"legal-rag-service/internal/cache"
	"legal-rag-service/internal/workflow"
)

// SearchRequest is the POST /search body (spec §6).
type SearchRequest struct {
	Query         string   `json:"query" binding:"required"`
	NResults      int      `json:"n_results"`
	DocumentTypes []string `json:"document_types"`
	Category      string   `json:"category"`
	SubCategory   string   `json:"sub_category"`
}

// ResultItem is one entry of SearchResponse.Results (spec §6).
type ResultItem struct {
	ID       string                 `json:"id"`
	Document string                 `json:"document"`
	Metadata map[string]interface{} `json:"metadata"`
	Distance float64                `json:"distance"`
	Score    float64                `json:"score"`
}

// SearchResponse is the POST/GET /search response body (spec §6).
type SearchResponse struct {
	Query     string       `json:"query"`
	Results   []ResultItem `json:"results"`
	Total     int          `json:"total"`
	Timestamp time.Time    `json:"timestamp"`
}

func (s *Server) handleSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logError(c, apierrors.Validation("invalid search request", map[string]interface{}{"error": err.Error()}))
		return
	}
	s.runSearch(c, req)
}

func (s *Server) handleSearchGet(c *gin.Context) {
	req := SearchRequest{
		Query:       c.Query("query"),
		Category:    c.Query("category"),
		SubCategory: c.Query("sub_category"),
	}
	if n := c.Query("n_results"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			req.NResults = v
		}
	}
	if dt := c.Query("document_types"); dt != "" {
		req.DocumentTypes = strings.Split(dt, ",")
	}
	if req.Query == "" {
		s.logError(c, apierrors.Validation("query is required", nil))
		return
	}
	s.runSearch(c, req)
}

func (s *Server) runSearch(c *gin.Context, req SearchRequest) {
	filters := map[string]interface{}{}
	if req.Category != "" {
		filters["category"] = req.Category
	}
	if req.SubCategory != "" {
		filters["sub_category"] = req.SubCategory
	}

	topK := req.NResults
	if topK <= 0 {
		topK = s.c.Settings.SearchDefaultTopK
	}
	if topK > s.c.Settings.SearchMaxResults {
		topK = s.c.Settings.SearchMaxResults
	}

	cacheFilters := map[string]interface{}{
		"filters":        filters,
		"document_types": req.DocumentTypes,
		"n_results":      topK,
	}
	key := cache.Key(req.Query, cacheFilters)

	if s.c.Settings.CacheEnabled {
		if cached, ok := s.c.Cache.Get(key); ok {
			c.Data(http.StatusOK, "application/json", cached)
			return
		}
	}

	start := time.Now()
	state := s.c.Workflow.Run(c.Request.Context(), req.Query, workflow.RunOpts{
		DocumentTypes:   req.DocumentTypes,
		MetadataFilters: filters,
		TopK:            topK,
		RerankTopK:      s.c.Settings.SearchRerankTopK,
	})
	elapsed := time.Since(start)

	if state.Error != nil {
		s.c.PerformanceMetrics.RecordSearch(0, elapsed)
		s.logError(c, apierrors.Search("retrieval failed", state.Error))
		return
	}

	resp := SearchResponse{Query: req.Query, Timestamp: time.Now()}
	for _, r := range state.RerankedResults {
		resp.Results = append(resp.Results, ResultItem{
			ID: r.ID, Document: r.Text, Metadata: r.Metadata, Distance: r.Distance, Score: r.Score,
		})
	}
	resp.Total = len(resp.Results)

	s.c.PerformanceMetrics.RecordSearch(resp.Total, elapsed)
	s.c.QueryLog.Log(req.Query, resp.Total, elapsed, map[string]interface{}{"document_types": req.DocumentTypes})

	if s.c.Settings.CacheEnabled {
		if body, err := marshalJSON(resp); err == nil {
			s.c.Cache.Set(key, body)
		}
	}

	c.JSON(http.StatusOK, resp)
}
