// Long-form content synthesis prompt + post-processing, grounded on
// original_source/src/api/routers/generate.py's _build_system_prompt/
// _build_user_prompt/_parse_generated_content (SPEC_FULL.md §4).
package prompt

import (
	"fmt"
	"strings"
)

// GenerateSystemPrompt sets the role for long-form synthesis, distinct
// from the retrieval-answer SystemPrompt (different register: the
// model is asked to write publishable content, not answer a question).
const GenerateSystemPrompt = `당신은 대한민국 법률 콘텐츠 전문 작가입니다. 제공된 법령/판례 자료를 근거로 독자가 이해하기 쉬운 장문 콘텐츠를 작성하세요. 사실에 근거하지 않은 내용은 작성하지 마세요.`

// GenerateConstraints carries the additional per-request parameters the
// /generate endpoint's prompt needs beyond context+query (spec §4.10/§6).
type GenerateConstraints struct {
	Topic          string
	ContentType    string
	Style          string
	TargetLength   int
	Keywords       []string
	IncludeSections []string
}

// BuildGeneratePrompt renders the long-form synthesis prompt, folding
// in style/length/keyword/section constraints absent from the
// retrieval-answer templates.
func BuildGeneratePrompt(context string, c GenerateConstraints) string {
	var b strings.Builder
	fmt.Fprintf(&b, "다음은 관련 법률 자료입니다:\n\n%s\n\n", context)
	fmt.Fprintf(&b, "주제: %s\n", c.Topic)
	fmt.Fprintf(&b, "콘텐츠 유형: %s\n", c.ContentType)
	if c.Style != "" {
		fmt.Fprintf(&b, "문체: %s\n", c.Style)
	}
	if c.TargetLength > 0 {
		fmt.Fprintf(&b, "목표 분량: 약 %d자\n", c.TargetLength)
	}
	if len(c.Keywords) > 0 {
		fmt.Fprintf(&b, "포함할 키워드: %s\n", strings.Join(c.Keywords, ", "))
	}
	if len(c.IncludeSections) > 0 {
		fmt.Fprintf(&b, "포함할 섹션: %s\n", strings.Join(c.IncludeSections, ", "))
	}
	b.WriteString("\n위 자료를 근거로 제목과 섹션 구조를 갖춘 글을 작성하세요. 첫 줄은 '# 제목' 형식으로, 각 섹션은 '## 섹션명' 형식으로 구분하세요.")
	return b.String()
}

// GeneratedSection is one heading-delimited block of synthesized content.
type GeneratedSection struct {
	Heading string
	Body    string
}

// ParseGeneratedContent extracts a title (from a leading "# " line) and
// sections (from "## " headings), the same heuristic BuildGeneratePrompt
// asks the model to follow.
func ParseGeneratedContent(content string) (title string, sections []GeneratedSection) {
	lines := strings.Split(content, "\n")
	var current *GeneratedSection
	var body []string

	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *current)
		}
		body = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# ") && title == "":
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		case strings.HasPrefix(trimmed, "## "):
			flush()
			heading := strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
			current = &GeneratedSection{Heading: heading}
		default:
			if current != nil {
				body = append(body, line)
			}
		}
	}
	flush()
	return title, sections
}
