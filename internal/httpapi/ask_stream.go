package httpapi

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"legal-rag-service/internal/apierrors"
	"legal-rag-service/internal/prompt"
)

// handleAskStream streams generator chunks as server-sent events (spec
// §6). The session is committed only after the final chunk, so a
// request cancelled mid-stream never leaves partial session state
// (spec §5: "partially written session state from a cancelled ask must
// not be committed").
func (s *Server) handleAskStream(c *gin.Context) {
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

	state, _, err := s.retrieve(c, req.Query, req.DocumentTypes)
	if err != nil {
		s.logError(c, apierrors.Search("retrieval failed", err))
		return
	}

	history := sess.ContextString(s.c.Settings.SessionMaxTurns)
	context := state.Context
	if history != "" {
		context = fmt.Sprintf("%s\n\n이전 대화:\n%s", context, history)
	}
	userPrompt := prompt.BuildUserPrompt(context, req.Query, req.DocumentTypes)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	chunks := s.c.LLM.GenerateStream(c.Request.Context(), prompt.SystemPrompt, userPrompt)
	var full strings.Builder

	c.Stream(func(w gin.ResponseWriter) bool {
		chunk, ok := <-chunks
		if !ok {
			return false
		}
		if chunk.Err != nil {
			body, _ := apierrors.ToBody(apierrors.LLM("stream failed", chunk.Err))
			c.SSEvent("", gin.H{"error": body.Error})
			return false
		}
		if chunk.Done {
			sess.AddMessage("user", req.Query)
			sess.AddMessage("assistant", full.String())
			if err := s.c.Sessions.Update(c.Request.Context(), sess); err != nil {
				s.c.Logger.Warn("failed to persist session after stream")
			}
			c.SSEvent("", gin.H{"done": true})
			return false
		}
		full.WriteString(chunk.Text)
		c.SSEvent("", gin.H{"chunk": chunk.Text})
		return true
	})
}
