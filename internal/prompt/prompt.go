// Package prompt builds the role-setting system prompt, the four
// type-specialized user prompts, and the context-window optimizer from
// spec §4.7, ported verbatim from
// original_source/src/rag/prompts.py's PromptTemplates/ContextOptimizer.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const SystemPrompt = `당신은 대한민국 법률 전문 AI 어시스턴트입니다. 제공된 법령, 판례, 절차 자료를 근거로 정확하고 신뢰할 수 있는 답변을 제공하세요. 근거가 부족하면 그 사실을 명시하고, 확정적인 법률 자문으로 단정하지 마세요.`

// DocumentType identifies which of the four specialized templates applies.
type DocumentType string

const (
	DocStatute   DocumentType = "statute"
	DocCase      DocumentType = "case"
	DocProcedure DocumentType = "procedure"
	DocGeneral   DocumentType = "general"
)

func statutePrompt(context, query string) string {
	return fmt.Sprintf(`다음은 관련 법령 조문입니다:

%s

질문: %s

위 법령 조문을 근거로 다음 구조로 답변하세요:
- 관련 조문: 어떤 조문이 적용되는지
- 법적 의미: 해당 조문이 질문과 어떻게 연관되는지
- 결론: 핵심 요약`, context, query)
}

func casePrompt(context, query string) string {
	return fmt.Sprintf(`다음은 관련 판례입니다:

%s

질문: %s

위 판례를 근거로 다음 구조로 답변하세요:
- 사건 개요
- 판시사항
- 적용 가능성: 질문과의 관련성`, context, query)
}

func procedurePrompt(context, query string) string {
	return fmt.Sprintf(`다음은 관련 절차 안내입니다:

%s

질문: %s

위 절차를 근거로 다음 구조로 답변하세요:
- 절차 단계
- 필요 서류/요건
- 유의사항`, context, query)
}

func generalPrompt(context, query string) string {
	return fmt.Sprintf(`다음은 관련 문서입니다:

%s

질문: %s

위 문서를 근거로 핵심을 정리하여 답변하세요.`, context, query)
}

// ByType dispatches to one of the four specialized templates.
func ByType(t DocumentType, context, query string) string {
	switch t {
	case DocStatute:
		return statutePrompt(context, query)
	case DocCase:
		return casePrompt(context, query)
	case DocProcedure:
		return procedurePrompt(context, query)
	default:
		return generalPrompt(context, query)
	}
}

// typeDispatch maps the document "type" wire value to the specialized
// template it selects (spec §4.7).
var typeDispatch = map[string]DocumentType{
	"statute": DocStatute, "case": DocCase, "procedure": DocProcedure,
}

// BuildUserPrompt selects the specialized template only when documentTypes
// has exactly one entry, else falls back to general (spec §4.7).
func BuildUserPrompt(context, query string, documentTypes []string) string {
	if len(documentTypes) == 1 {
		if dt, ok := typeDispatch[documentTypes[0]]; ok {
			return ByType(dt, context, query)
		}
	}
	return generalPrompt(context, query)
}

// DefaultMaxContextChars mirrors ContextOptimizer.MAX_CONTEXT_LENGTH=4000
// applied per doc-type slot, ~3x in practice => ~12000 (spec §4.7/§6).
const DefaultMaxContextChars = 12000

// docBlockMarker is the delimiter stage 5 of the workflow uses to open
// each document block ("[문서 i]\n제목: ...").
const docBlockMarker = "[문서"

// OptimizeContext truncates context to maxChars using a document-level
// greedy-largest-first policy, then re-sorts kept blocks back into
// original order (spec §4.7, ported from prompts.py's optimize_context).
func OptimizeContext(context string, maxChars int) string {
	if utf8.RuneCountInString(context) <= maxChars {
		return context
	}

	parts := strings.Split(context, docBlockMarker)
	type block struct {
		index int
		text  string
	}
	var blocks []block
	for i, p := range parts {
		if i == 0 {
			continue // text before the first marker, if any
		}
		text := docBlockMarker + p
		blocks = append(blocks, block{index: i, text: text})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return utf8.RuneCountInString(blocks[i].text) > utf8.RuneCountInString(blocks[j].text)
	})

	// Budget against the joined output, not the bare block lengths: kept
	// blocks are re-joined with "\n" below, and that separator character must
	// count against maxChars too or the result can exceed the budget once
	// two or more blocks survive (spec §8: optimizer output never exceeds
	// the configured budget).
	var kept []block
	total := 0
	for _, b := range blocks {
		cost := utf8.RuneCountInString(b.text)
		if len(kept) > 0 {
			cost++
		}
		if total+cost <= maxChars {
			kept = append(kept, b)
			total += cost
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].index < kept[j].index })

	texts := make([]string, len(kept))
	for i, b := range kept {
		texts[i] = b.text
	}
	return strings.Join(texts, "\n")
}
