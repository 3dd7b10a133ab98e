package httpapi

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"legal-rag-service/internal/apierrors"
	"legal-rag-service/internal/prompt"
	"legal-rag-service/internal/workflow"
)

var validContentTypes = map[string]bool{
	"blog": true, "article": true, "opinion": true, "analysis": true, "faq": true,
}

// GenerateRequest is the POST /generate body (spec §6).
type GenerateRequest struct {
	Topic           string   `json:"topic" binding:"required"`
	ContentType     string   `json:"content_type" binding:"required"`
	Style           string   `json:"style"`
	TargetLength    int      `json:"target_length"`
	IncludeSections []string `json:"include_sections"`
	Keywords        []string `json:"keywords"`
	DocumentTypes   []string `json:"document_types"`
	NReferences     int      `json:"n_references"`
}

// Reference is one entry of GenerateResponse.References (spec §6).
type Reference struct {
	Title     string  `json:"title"`
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Relevance float64 `json:"relevance,omitempty"`
}

// GenerateResponse is the POST /generate response body (spec §6).
type GenerateResponse struct {
	Success   bool               `json:"success"`
	Content   string             `json:"content"`
	Title     string             `json:"title,omitempty"`
	Sections  []string           `json:"sections,omitempty"`
	References []Reference       `json:"references"`
	Metadata  GenerateMetadata   `json:"metadata"`
	Timestamp time.Time          `json:"timestamp"`
}

type GenerateMetadata struct {
	ContentType string `json:"content_type"`
	Topic       string `json:"topic"`
	WordCount   int    `json:"word_count"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logError(c, apierrors.Validation("invalid generate request", map[string]interface{}{"error": err.Error()}))
		return
	}
	if !validContentTypes[req.ContentType] {
		s.logError(c, apierrors.Validation("unrecognized content_type", map[string]interface{}{"content_type": req.ContentType}))
		return
	}

	nRefs := req.NReferences
	if nRefs <= 0 {
		nRefs = s.c.Settings.SearchMaxSources
	}

	state := s.c.Workflow.Run(c.Request.Context(), req.Topic, workflow.RunOpts{
		DocumentTypes: req.DocumentTypes,
		TopK:          s.c.Settings.SearchDefaultTopK,
		RerankTopK:    nRefs,
	})
	if state.Error != nil {
		s.logError(c, apierrors.Search("retrieval for generation failed", state.Error))
		return
	}

	constraints := prompt.GenerateConstraints{
		Topic: req.Topic, ContentType: req.ContentType, Style: req.Style,
		TargetLength: req.TargetLength, Keywords: req.Keywords, IncludeSections: req.IncludeSections,
	}
	userPrompt := prompt.BuildGeneratePrompt(state.Context, constraints)

	content, err := s.c.LLM.Generate(c.Request.Context(), prompt.GenerateSystemPrompt, userPrompt)
	if err != nil {
		s.logError(c, apierrors.LLM("generation failed", err))
		return
	}

	title, sections := prompt.ParseGeneratedContent(content)
	var sectionHeadings []string
	for _, sec := range sections {
		sectionHeadings = append(sectionHeadings, sec.Heading)
	}

	var refs []Reference
	for _, r := range state.RerankedResults {
		refTitle, _ := r.Metadata["title"].(string)
		refType, _ := r.Metadata["document_type"].(string)
		refs = append(refs, Reference{Title: refTitle, Type: refType, ID: r.ID, Relevance: r.Score})
	}

	c.JSON(http.StatusOK, GenerateResponse{
		Success:  true,
		Content:  content,
		Title:    title,
		Sections: sectionHeadings,
		References: refs,
		Metadata: GenerateMetadata{
			ContentType: req.ContentType,
			Topic:       req.Topic,
			WordCount:   utf8.RuneCountInString(content),
		},
		Timestamp: time.Now(),
	})
}
