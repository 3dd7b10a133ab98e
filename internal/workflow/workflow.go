// Package workflow implements the five-stage retrieval pipeline (spec
// §4.6), ported from original_source/src/rag/workflow.py's RAGWorkflow
// node sequence and retriever.py's rerank_results. LangGraph's node/edge
// graph is replaced by direct sequential calls over an explicit state
// struct, per spec §9: "do not use exceptions for control flow... each
// stage returns a state augmented with either new outputs or an error
// field".
package workflow

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"legal-rag-service/internal/embedding"
	"legal-rag-service/internal/model"
	"legal-rag-service/internal/prompt"
	"legal-rag-service/internal/vectorstore"
)

// Result is one retrieved document, carrying both the raw distance and
// the derived relevance score (spec §4.6 stage 4).
type Result struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
	Distance float64
	Score    float64
}

// State is the per-request object threaded through all five stages
// (spec §4.6). Failure of any stage sets Error and short-circuits the
// rest; Run always returns a State, never partial garbage.
type State struct {
	Query           string
	QueryEmbedding  []float32
	RawResults      []Result
	FilteredResults []Result
	RerankedResults []Result
	Context         string

	MetadataFilters map[string]interface{}
	DocumentTypes   []string

	TopK       int
	RerankTopK int

	Error error
}

// Workflow wires the embedding client and vector store into the pipeline.
type Workflow struct {
	embedder    *embedding.Client
	store       *vectorstore.Store
	contextMax  int
}

func New(embedder *embedding.Client, store *vectorstore.Store, contextMax int) *Workflow {
	return &Workflow{embedder: embedder, store: store, contextMax: contextMax}
}

// RunOpts mirrors the caller-supplied parameters to retriever.search
// (spec §4.6/§6).
type RunOpts struct {
	DocumentTypes   []string
	MetadataFilters map[string]interface{}
	TopK            int
	RerankTopK      int
}

// Run executes all five stages sequentially. Ordering matters: embedding
// precedes search, search precedes filter, filter precedes re-rank,
// re-rank precedes assemble (spec §5).
func (w *Workflow) Run(ctx context.Context, query string, opts RunOpts) *State {
	s := &State{
		Query:           query,
		MetadataFilters: opts.MetadataFilters,
		DocumentTypes:   opts.DocumentTypes,
		TopK:            opts.TopK,
		RerankTopK:      opts.RerankTopK,
	}
	if s.TopK == 0 {
		s.TopK = 10
	}
	if s.RerankTopK == 0 {
		s.RerankTopK = 5
	}
	if s.MetadataFilters == nil {
		s.MetadataFilters = map[string]interface{}{}
	}

	w.analyze(ctx, s)
	if s.Error != nil {
		return s
	}
	w.search(ctx, s)
	if s.Error != nil {
		return s
	}
	w.filter(s)
	w.rerank(s)
	w.assemble(s)
	return s
}

// --- Stage 1: Analyze ---

var (
	caseNumberRe        = regexp.MustCompile(`(\d{4}[가-힣]+\d+)`)
	caseNumberSpacedRe  = regexp.MustCompile(`(\d{4})\s*([가-힣]+)\s*(\d+)`)
)

var categoryKeywords = map[string][2]string{
	"형사": {"criminal", ""},
	"민사": {"civil", ""},
	"사기": {"criminal", "fraud"},
}

var typeKeywords = map[string]string{
	"법령": "statute", "조문": "statute",
	"판례": "case", "판결": "case",
	"절차": "procedure",
	"템플릿": "template",
}

func (w *Workflow) analyze(ctx context.Context, s *State) {
	vec, err := w.embedder.Embed(ctx, s.Query)
	if err != nil {
		s.Error = fmt.Errorf("query embedding failed: %w", err)
		return
	}
	s.QueryEmbedding = vec

	// A "string" sentinel value means "no filter" for that key; drop it so
	// it never reaches the store's where clause.
	for k, v := range s.MetadataFilters {
		if v == "string" {
			delete(s.MetadataFilters, k)
		}
	}

	implicit := extractImplicitFilters(s.Query)
	// Caller-provided filters win on conflict (spec §4.6 stage 1).
	for k, v := range implicit {
		if _, exists := s.MetadataFilters[k]; !exists {
			s.MetadataFilters[k] = v
		}
	}

	if cn := extractCaseNumber(s.Query); cn != "" {
		if _, exists := s.MetadataFilters["case_number"]; !exists {
			s.MetadataFilters["case_number"] = cn
		}
	}

	s.DocumentTypes = normalizeDocumentTypes(s.DocumentTypes, s.Query)
}

// extractImplicitFilters derives category/sub_category from keywords in
// the query text (ported from workflow.py's _extract_filters).
func extractImplicitFilters(query string) map[string]interface{} {
	out := map[string]interface{}{}
	for kw, cs := range categoryKeywords {
		if strings.Contains(query, kw) {
			out["category"] = cs[0]
			if cs[1] != "" {
				out["sub_category"] = cs[1]
			}
		}
	}
	return out
}

// extractCaseNumber recognizes "2005고합694" and the spaced variant
// "2005 고합 694", normalizing both to the unspaced form (spec §4.6/§8).
func extractCaseNumber(query string) string {
	if m := caseNumberRe.FindString(query); m != "" {
		return m
	}
	if m := caseNumberSpacedRe.FindStringSubmatch(query); m != nil {
		return m[1] + m[2] + m[3]
	}
	return ""
}

// normalizeDocumentTypes drops the "string" sentinel, drops unknown
// values, and falls back to query-extracted types when empty (spec
// §4.6 stage 1 / §9 Glossary "Sentinel string").
func normalizeDocumentTypes(types []string, query string) []string {
	var out []string
	for _, t := range types {
		switch model.Kind(t) {
		case model.KindStatute, model.KindCase, model.KindProcedure, model.KindTemplate,
			model.KindManual, model.KindCaseType, model.KindSentencingGuideline,
			model.KindFAQ, model.KindKeywordMapping, model.KindStyleIssue, model.KindStatistics:
			out = append(out, t)
		}
	}
	if len(out) > 0 {
		return out
	}
	var extracted []string
	seen := map[string]bool{}
	for kw, dt := range typeKeywords {
		if strings.Contains(query, kw) && !seen[dt] {
			extracted = append(extracted, dt)
			seen[dt] = true
		}
	}
	return extracted // may be empty, meaning no filter
}

// --- Stage 2: Search ---

func (w *Workflow) search(ctx context.Context, s *State) {
	where := buildWhere(s.MetadataFilters)
	raw, err := w.store.Search(ctx, s.QueryEmbedding, s.TopK, where)
	if err != nil {
		s.Error = fmt.Errorf("vector search failed: %w", err)
		return
	}
	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		results = append(results, Result{ID: r.ID, Text: r.Text, Metadata: r.Metadata, Distance: r.Distance})
	}
	s.RawResults = results
}

// buildWhere chooses the single-key form for one constraint or the
// $and form for several (spec §4.6 stage 2).
func buildWhere(filters map[string]interface{}) vectorstore.Where {
	if len(filters) == 0 {
		return nil
	}
	if len(filters) == 1 {
		return vectorstore.Where(filters)
	}
	var conds []map[string]interface{}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		conds = append(conds, map[string]interface{}{k: filters[k]})
	}
	return vectorstore.Where{"$and": conds}
}

// --- Stage 3: Filter ---

func (w *Workflow) filter(s *State) {
	out := s.RawResults
	if len(s.DocumentTypes) > 0 {
		allowed := map[string]bool{}
		for _, t := range s.DocumentTypes {
			allowed[t] = true
		}
		filtered := out[:0:0]
		for _, r := range out {
			if typ, _ := r.Metadata["document_type"].(string); typ == "" || allowed[typ] {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}

	// Residual metadata equality filters not already pushed to the store
	// (here: all filters were pushed to the store's WHERE clause already,
	// so this is a defensive re-check in case the store returned extra
	// rows for an $and it could not fully express).
	for k, v := range s.MetadataFilters {
		if k == "type" {
			continue
		}
		filtered := out[:0:0]
		for _, r := range out {
			if mv, ok := r.Metadata[k]; !ok || fmt.Sprintf("%v", mv) == fmt.Sprintf("%v", v) {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}

	s.FilteredResults = out
}

// --- Stage 4: Re-rank ---

func (w *Workflow) rerank(s *State) {
	results := append([]Result(nil), s.FilteredResults...)
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > s.RerankTopK {
		results = results[:s.RerankTopK]
	}
	for i := range results {
		if results[i].Distance <= 0 {
			results[i].Score = 1.0
		} else {
			results[i].Score = 1.0 / (1.0 + results[i].Distance)
		}
	}
	s.RerankedResults = results
}

// --- Stage 5: Assemble ---

func (w *Workflow) assemble(s *State) {
	var blocks []string
	for i, r := range s.RerankedResults {
		title, _ := r.Metadata["title"].(string)
		typ, _ := r.Metadata["document_type"].(string)
		blocks = append(blocks, fmt.Sprintf("[문서 %d]\n제목: %s\n타입: %s\n내용: %s", i+1, title, typ, r.Text))
	}
	s.Context = strings.Join(blocks, "\n\n")
	if w.contextMax > 0 && len(s.Context) > w.contextMax {
		s.Context = prompt.OptimizeContext(s.Context, w.contextMax)
	}
}
