// Package chunker implements type-aware document segmentation (spec §4.1).
// Strategy selection dispatches on Document.Kind, generalizing
// original_source/src/rag/chunker.py's kind-switch and
// document-chunker/main.go's regex-bounded segmentation idiom.
package chunker

import (
	"regexp"
	"strings"

	"legal-rag-service/internal/model"
)

// Config controls chunk sizing. Defaults mirror
// original_source/src/rag/chunker.py's TextChunker(chunk_size=1000,
// chunk_overlap=200).
type Config struct {
	ChunkSize            int
	ChunkOverlap         int
	SplitStatuteByItems  bool
}

func DefaultConfig() Config {
	return Config{ChunkSize: 1000, ChunkOverlap: 200, SplitStatuteByItems: true}
}

// Chunker produces chunks from a validated document.
type Chunker struct {
	cfg Config
}

func New(cfg Config) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	return &Chunker{cfg: cfg}
}

// Chunk dispatches on document kind per spec §4.1.
func (c *Chunker) Chunk(doc model.Document) []model.Chunk {
	switch doc.Kind {
	case model.KindStatute:
		return c.chunkStatute(doc)
	case model.KindCase:
		return c.chunkCase(doc)
	case model.KindTemplate:
		return c.chunkTemplate(doc)
	default:
		return c.chunkDefault(doc)
	}
}

var (
	// 제<N>조 with optional 의<M> sub-article, e.g. 제1조, 제10조의2.
	// The article_number metadata is the bare marker only (spec §8 scenario 1
	// expects "제1조", not "제1조(목적)"); any trailing parenthetical title
	// is left in the chunk body, not folded into the marker.
	articleRe = regexp.MustCompile(`제(\d+)조(?:의(\d+))?`)
	// Circled digits ①-⑳ or parenthesized (1)..(20).
	itemRe = regexp.MustCompile(`[①-⑳]|\(\d+\)`)

	bracketHeaderRe = regexp.MustCompile(`(?m)^【([^】]*)】`)
	numberedHeaderRe = regexp.MustCompile(`(?m)^\s*(\d+)\.\s*(.+)$`)
	colonHeaderRe    = regexp.MustCompile(`(?m)^(.{1,40}):\s*$`)
)

func (c *Chunker) chunkStatute(doc model.Document) []model.Chunk {
	if doc.Content.IsList {
		return c.chunkDefault(doc)
	}
	content := doc.Content.Text
	locs := articleRe.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return c.chunkDefault(doc)
	}

	var chunks []model.Chunk
	idx := 0
	for i, loc := range locs {
		start := loc[0]
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		articleNumber := content[loc[0]:loc[1]]
		text := strings.TrimSpace(content[start:end])
		if text == "" {
			continue
		}
		meta := map[string]interface{}{
			"chunk_index":    idx,
			"document_id":    doc.ID,
			"document_type":  string(doc.Kind),
			"article_number": articleNumber,
		}
		if loc[4] >= 0 && loc[5] >= 0 {
			meta["sub_article"] = content[loc[4]:loc[5]]
		}

		if !c.cfg.SplitStatuteByItems {
			chunks = append(chunks, model.Chunk{
				Text: text, ParentID: doc.ID, ChunkIndex: idx,
				ParentKind: doc.Kind, Metadata: meta,
			})
			idx++
			continue
		}

		items := c.splitStatuteItems(doc, text, articleNumber, &idx)
		if sub, ok := meta["sub_article"]; ok {
			for _, ch := range items {
				ch.Metadata["sub_article"] = sub
			}
		}
		chunks = append(chunks, items...)
	}
	if len(chunks) == 0 {
		return c.chunkDefault(doc)
	}
	return chunks
}

// splitStatuteItems further splits one article's text at item markers,
// emitting a header chunk (is_header=true) for the text preceding the
// first item, per spec §4.1.
func (c *Chunker) splitStatuteItems(doc model.Document, articleText, articleNumber string, idx *int) []model.Chunk {
	itemLocs := itemRe.FindAllStringIndex(articleText, -1)
	if len(itemLocs) == 0 {
		chunk := model.Chunk{
			Text: articleText, ParentID: doc.ID, ChunkIndex: *idx, ParentKind: doc.Kind,
			Metadata: map[string]interface{}{
				"chunk_index": *idx, "document_id": doc.ID, "document_type": string(doc.Kind),
				"article_number": articleNumber,
			},
		}
		*idx++
		return []model.Chunk{chunk}
	}

	var out []model.Chunk
	header := strings.TrimSpace(articleText[:itemLocs[0][0]])
	if header != "" {
		out = append(out, model.Chunk{
			Text: header, ParentID: doc.ID, ChunkIndex: *idx, ParentKind: doc.Kind, IsHeader: true,
			Metadata: map[string]interface{}{
				"chunk_index": *idx, "document_id": doc.ID, "document_type": string(doc.Kind),
				"article_number": articleNumber, "is_header": true,
			},
		})
		*idx++
	}

	for i, loc := range itemLocs {
		start := loc[0]
		end := len(articleText)
		if i+1 < len(itemLocs) {
			end = itemLocs[i+1][0]
		}
		text := strings.TrimSpace(articleText[start:end])
		if text == "" {
			continue
		}
		itemMarker := articleText[loc[0]:loc[1]]
		out = append(out, model.Chunk{
			Text: text, ParentID: doc.ID, ChunkIndex: *idx, ParentKind: doc.Kind,
			Metadata: map[string]interface{}{
				"chunk_index": *idx, "document_id": doc.ID, "document_type": string(doc.Kind),
				"article_number": articleNumber, "item_number": itemMarker,
			},
		})
		*idx++
	}
	return out
}

func (c *Chunker) chunkCase(doc model.Document) []model.Chunk {
	if doc.Content.IsList {
		return c.chunkDefault(doc)
	}
	content := doc.Content.Text

	sections := detectCaseSections(content)
	if len(sections) == 0 {
		return c.packSentences(doc)
	}

	var chunks []model.Chunk
	for i, s := range sections {
		text := strings.TrimSpace(s.body)
		if text == "" {
			continue
		}
		chunks = append(chunks, model.Chunk{
			Text: text, ParentID: doc.ID, ChunkIndex: i, ParentKind: doc.Kind,
			Metadata: map[string]interface{}{
				"chunk_index": i, "document_id": doc.ID, "document_type": string(doc.Kind),
				"section_type": string(classifySection(s.header)),
			},
		})
	}
	if len(chunks) == 0 {
		return c.packSentences(doc)
	}
	return chunks
}

type caseSection struct {
	header string
	body   string
}

// detectCaseSections finds section boundaries via bracketed headers
// 【…】, numbered "1. 제목" headers, or trailing-colon titles, in that
// priority order (spec §4.1).
func detectCaseSections(content string) []caseSection {
	if locs := bracketHeaderRe.FindAllStringSubmatchIndex(content, -1); len(locs) > 0 {
		return sectionsFromLocs(content, locs, func(l []int) (header string, bodyStart int) {
			return content[l[2]:l[3]], l[1]
		})
	}
	if locs := numberedHeaderRe.FindAllStringSubmatchIndex(content, -1); len(locs) > 0 {
		return sectionsFromLocs(content, locs, func(l []int) (header string, bodyStart int) {
			return content[l[4]:l[5]], l[1]
		})
	}
	if locs := colonHeaderRe.FindAllStringSubmatchIndex(content, -1); len(locs) > 0 {
		return sectionsFromLocs(content, locs, func(l []int) (header string, bodyStart int) {
			return content[l[2]:l[3]], l[1]
		})
	}
	return nil
}

func sectionsFromLocs(content string, locs [][]int, extract func([]int) (string, int)) []caseSection {
	var out []caseSection
	for i, loc := range locs {
		header, bodyStart := extract(loc)
		bodyEnd := len(content)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		out = append(out, caseSection{header: header, body: content[bodyStart:bodyEnd]})
	}
	return out
}

var sectionKeywords = map[SectionType][]string{
	SectionOverview:  {"개요", "사건개요", "개관"},
	SectionSummary:   {"요지", "판시사항", "요약"},
	SectionReasoning: {"이유", "판단", "판결이유"},
	SectionReference: {"참조", "참조조문", "참조판례"},
}

type SectionType = model.SectionType

const (
	SectionOverview  = model.SectionOverview
	SectionSummary   = model.SectionSummary
	SectionReasoning = model.SectionReasoning
	SectionReference = model.SectionReference
	SectionGeneral   = model.SectionGeneral
)

func classifySection(header string) SectionType {
	for t, keywords := range sectionKeywords {
		for _, k := range keywords {
			if strings.Contains(header, k) {
				return t
			}
		}
	}
	return SectionGeneral
}

// packSentences splits on the Korean sentence delimiter "。" and packs
// greedily into chunks of at most ChunkSize, the chunker.py fallback for
// case documents with no detected section headers.
func (c *Chunker) packSentences(doc model.Document) []model.Chunk {
	var text string
	if doc.Content.IsList {
		text = doc.Content.Joined()
	} else {
		text = doc.Content.Text
	}
	sentences := strings.Split(text, "。")

	var chunks []model.Chunk
	var current strings.Builder
	idx := 0
	flush := func() {
		t := strings.TrimSpace(current.String())
		if t == "" {
			return
		}
		chunks = append(chunks, model.Chunk{
			Text: t, ParentID: doc.ID, ChunkIndex: idx, ParentKind: doc.Kind,
			Metadata: map[string]interface{}{
				"chunk_index": idx, "document_id": doc.ID, "document_type": string(doc.Kind),
			},
		})
		idx++
		current.Reset()
	}

	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if current.Len()+len(s) > c.cfg.ChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(s)
	}
	flush()

	if len(chunks) == 0 {
		return c.chunkDefault(doc)
	}
	return chunks
}

// chunkTemplate emits one chunk per list item; chunk_index equals list index.
func (c *Chunker) chunkTemplate(doc model.Document) []model.Chunk {
	if !doc.Content.IsList {
		return c.chunkDefault(doc)
	}
	var chunks []model.Chunk
	for i, item := range doc.Content.List {
		if strings.TrimSpace(item) == "" {
			continue
		}
		chunks = append(chunks, model.Chunk{
			Text: item, ParentID: doc.ID, ChunkIndex: i, ParentKind: doc.Kind,
			Metadata: map[string]interface{}{
				"chunk_index": i, "document_id": doc.ID, "document_type": string(doc.Kind),
			},
		})
	}
	return chunks
}

// chunkDefault is the fixed-width sliding window with overlap, ported from
// original_source/src/rag/chunker.py's _chunk_default, operating on runes
// so multi-byte Korean text is not split mid-codepoint.
func (c *Chunker) chunkDefault(doc model.Document) []model.Chunk {
	text := doc.Content.Joined()
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []model.Chunk
	start := 0
	idx := 0
	for start < n {
		end := start + c.cfg.ChunkSize
		if end > n {
			end = n
		}
		chunkEnd := end
		if end < n && c.cfg.ChunkOverlap > 0 {
			chunkEnd = end - c.cfg.ChunkOverlap
			if chunkEnd <= start {
				chunkEnd = end
			}
		}
		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, model.Chunk{
				Text: text, ParentID: doc.ID, ChunkIndex: idx, ParentKind: doc.Kind,
				Metadata: map[string]interface{}{
					"chunk_index": idx, "document_id": doc.ID, "document_type": string(doc.Kind),
				},
			})
			idx++
		}
		if chunkEnd > start {
			start = chunkEnd
		} else {
			start += c.cfg.ChunkSize
		}
	}
	return chunks
}
