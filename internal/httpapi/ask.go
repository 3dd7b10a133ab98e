package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legal-rag-service/internal/apierrors"
	"legal-rag-service/internal/cache"
	"legal-rag-service/internal/prompt"
	"legal-rag-service/internal/session"
	"legal-rag-service/internal/workflow"
)

// AskRequest is the POST /ask and /ask/stream body (spec §6).
type AskRequest struct {
	Query         string   `json:"query" binding:"required"`
	SessionID     string   `json:"session_id"`
	Stream        bool     `json:"stream"`
	DocumentTypes []string `json:"document_types"`
}

// Source is one entry of AskResponse.Sources, extracted from the
// top-search_max_sources re-ranked results (SPEC_FULL.md §4).
type Source struct {
	ID   string `json:"id"`
	Title string `json:"title"`
	Type string `json:"type"`
}

// AskResponse is the POST /ask response body (spec §6).
type AskResponse struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	Sources   []Source  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

// retrieve runs the cached retrieval workflow shared by /ask and /ask/stream
// (spec §4.10: "POST /ask: as above [rate-limit, cache lookup, retrieval
// workflow on miss, cache store], plus session...").
func (s *Server) retrieve(c *gin.Context, query string, documentTypes []string) (*workflow.State, bool, error) {
	topK := s.c.Settings.SearchDefaultTopK
	cacheFilters := map[string]interface{}{"document_types": documentTypes, "n_results": topK}
	key := cache.Key(query, cacheFilters)

	if s.c.Settings.CacheEnabled {
		if cached, ok := s.c.Cache.Get(key); ok {
			var state workflow.State
			if err := json.Unmarshal(cached, &state); err == nil {
				return &state, true, nil
			}
		}
	}

	state := s.c.Workflow.Run(c.Request.Context(), query, workflow.RunOpts{
		DocumentTypes: documentTypes,
		TopK:          topK,
		RerankTopK:    s.c.Settings.SearchRerankTopK,
	})
	if state.Error != nil {
		return state, false, state.Error
	}
	if s.c.Settings.CacheEnabled {
		if body, err := marshalJSON(state); err == nil {
			s.c.Cache.Set(key, body)
		}
	}
	return state, false, nil
}

func (s *Server) sessionOrCreate(c *gin.Context, id string) (*session.Session, error) {
	if id != "" {
		sess, err := s.c.Sessions.Get(c.Request.Context(), id)
		if err != nil {
			return nil, apierrors.Session("failed to load session", err)
		}
		if sess != nil {
			return sess, nil
		}
	}
	sess, err := s.c.Sessions.Create(c.Request.Context(), id)
	if err != nil {
		return nil, apierrors.Session("failed to create session", err)
	}
	return sess, nil
}

func sourcesFrom(state *workflow.State, max int) []Source {
	var out []Source
	for i, r := range state.RerankedResults {
		if i >= max {
			break
		}
		title, _ := r.Metadata["title"].(string)
		typ, _ := r.Metadata["document_type"].(string)
		out = append(out, Source{ID: r.ID, Title: title, Type: typ})
	}
	return out
}

func (s *Server) handleAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logError(c, apierrors.Validation("invalid ask request", map[string]interface{}{"error": err.Error()}))
		return
	}

	sess, err := s.sessionOrCreate(c, req.SessionID)
	if err != nil {
		s.logError(c, err)
		return
	}

	start := time.Now()
	state, _, err := s.retrieve(c, req.Query, req.DocumentTypes)
	if err != nil {
		s.c.PerformanceMetrics.RecordSearch(0, time.Since(start))
		s.logError(c, apierrors.Search("retrieval failed", err))
		return
	}
	s.c.PerformanceMetrics.RecordSearch(len(state.RerankedResults), time.Since(start))

	history := sess.ContextString(s.c.Settings.SessionMaxTurns)
	context := state.Context
	if history != "" {
		context = fmt.Sprintf("%s\n\n이전 대화:\n%s", context, history)
	}

	userPrompt := prompt.BuildUserPrompt(context, req.Query, req.DocumentTypes)
	llmStart := time.Now()
	answer, err := s.c.LLM.Generate(c.Request.Context(), prompt.SystemPrompt, userPrompt)
	if err != nil {
		s.logError(c, apierrors.LLM("generation failed", err))
		return
	}
	usage := s.c.LLM.TokenUsage()
	s.c.PerformanceMetrics.RecordLLMUsage(usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, time.Since(llmStart))

	sess.AddMessage("user", req.Query)
	sess.AddMessage("assistant", answer)
	if err := s.c.Sessions.Update(c.Request.Context(), sess); err != nil {
		s.c.Logger.Warn("failed to persist session", zap.Error(err))
	}

	s.c.QueryLog.Log(req.Query, len(state.RerankedResults), time.Since(start), map[string]interface{}{"session_id": sess.ID})

	c.JSON(http.StatusOK, AskResponse{
		Query:     req.Query,
		Response:  answer,
		SessionID: sess.ID,
		Sources:   sourcesFrom(state, s.c.Settings.SearchMaxSources),
		Timestamp: time.Now(),
	})
}
