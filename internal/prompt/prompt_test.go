package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildUserPromptDispatchesOnSingleDocumentType(t *testing.T) {
	got := BuildUserPrompt("ctx", "질문", []string{"statute"})
	if !strings.Contains(got, "법령 조문") {
		t.Errorf("expected statute template, got %q", got)
	}
}

func TestBuildUserPromptFallsBackToGeneralWhenMultipleTypes(t *testing.T) {
	got := BuildUserPrompt("ctx", "질문", []string{"statute", "case"})
	if !strings.Contains(got, "관련 문서") {
		t.Errorf("expected general template for multiple types, got %q", got)
	}
}

func TestBuildUserPromptFallsBackToGeneralWhenUnknownType(t *testing.T) {
	got := BuildUserPrompt("ctx", "질문", []string{"unknown_type"})
	if !strings.Contains(got, "관련 문서") {
		t.Errorf("expected general template for unknown type, got %q", got)
	}
}

func TestOptimizeContextNeverExceedsBudget(t *testing.T) {
	var blocks []string
	for i := 0; i < 20; i++ {
		blocks = append(blocks, "[문서 "+string(rune('A'+i))+"]\n제목: x\n타입: case\n내용: "+strings.Repeat("본문 ", 50))
	}
	context := strings.Join(blocks, "\n\n")
	out := OptimizeContext(context, 500)
	if n := utf8.RuneCountInString(out); n > 500 {
		t.Errorf("optimized context length %d exceeds budget 500", n)
	}
}

func TestOptimizeContextNoopUnderBudget(t *testing.T) {
	context := "[문서 1]\n제목: x\n타입: case\n내용: 짧은 내용"
	if got := OptimizeContext(context, 12000); got != context {
		t.Errorf("expected no-op under budget, got %q", got)
	}
}

func TestOptimizeContextPreservesOriginalOrder(t *testing.T) {
	// Two large equal-size blocks (1 and 3) and one small block (2); a
	// budget of 350 fits block 1 plus the small block 2 but not block 3.
	context := "[문서 1]\n내용: " + strings.Repeat("a", 300) + "\n\n" +
		"[문서 2]\n내용: " + strings.Repeat("b", 10) + "\n\n" +
		"[문서 3]\n내용: " + strings.Repeat("c", 300)
	out := OptimizeContext(context, 350)

	idx1 := strings.Index(out, "[문서 1]")
	idx2 := strings.Index(out, "[문서 2]")
	if idx1 == -1 || idx2 == -1 {
		t.Fatalf("expected blocks 1 and 2 to survive truncation, got %q", out)
	}
	if strings.Contains(out, "[문서 3]") {
		t.Errorf("expected the larger block 3 to be dropped, got %q", out)
	}
	if idx1 > idx2 {
		t.Errorf("expected original order preserved (1 before 2), got %q", out)
	}
}
