package workflow

import "testing"

func TestExtractCaseNumber(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"2005고합694 판결문을 찾아줘", "2005고합694"},
		{"2005 고합 694 사건", "2005고합694"},
		{"관련 사건번호 없음", ""},
	}
	for _, c := range cases {
		if got := extractCaseNumber(c.query); got != c.want {
			t.Errorf("extractCaseNumber(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}

func TestExtractImplicitFilters(t *testing.T) {
	got := extractImplicitFilters("사기 사건의 형사 처벌 기준")
	if got["category"] != "criminal" {
		t.Errorf("category = %v, want criminal", got["category"])
	}
	if got["sub_category"] != "fraud" {
		t.Errorf("sub_category = %v, want fraud", got["sub_category"])
	}
}

func TestNormalizeDocumentTypesDropsSentinel(t *testing.T) {
	got := normalizeDocumentTypes([]string{"string"}, "판례를 찾아줘")
	if len(got) != 1 || got[0] != "case" {
		t.Fatalf("expected fallback to query-extracted [case], got %v", got)
	}
}

func TestNormalizeDocumentTypesKeepsExplicit(t *testing.T) {
	got := normalizeDocumentTypes([]string{"statute"}, "판례를 찾아줘")
	if len(got) != 1 || got[0] != "statute" {
		t.Fatalf("expected explicit types preserved, got %v", got)
	}
}

func TestBuildWhereSingleKey(t *testing.T) {
	w := buildWhere(map[string]interface{}{"category": "criminal"})
	if w["category"] != "criminal" {
		t.Fatalf("expected flat where, got %v", w)
	}
}

func TestBuildWhereMultipleKeysUsesAnd(t *testing.T) {
	w := buildWhere(map[string]interface{}{"category": "criminal", "case_number": "2005고합694"})
	if _, ok := w["$and"]; !ok {
		t.Fatalf("expected $and for multi-key filter, got %v", w)
	}
}

func TestRerankOrdersByDistanceAndScores(t *testing.T) {
	wf := &Workflow{}
	s := &State{
		RerankTopK: 2,
		FilteredResults: []Result{
			{ID: "c", Distance: 0.8},
			{ID: "a", Distance: 0.1},
			{ID: "b", Distance: 0.4},
		},
	}
	wf.rerank(s)
	if len(s.RerankedResults) != 2 {
		t.Fatalf("expected RerankTopK=2 results, got %d", len(s.RerankedResults))
	}
	if s.RerankedResults[0].ID != "a" || s.RerankedResults[1].ID != "b" {
		t.Fatalf("expected [a, b] by ascending distance, got %v", s.RerankedResults)
	}
	want := 1.0 / 1.4
	if diff := s.RerankedResults[1].Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want %v", s.RerankedResults[1].Score, want)
	}
}

func TestFilterByDocumentType(t *testing.T) {
	wf := &Workflow{}
	s := &State{
		DocumentTypes: []string{"statute"},
		RawResults: []Result{
			{ID: "a", Metadata: map[string]interface{}{"document_type": "statute"}},
			{ID: "b", Metadata: map[string]interface{}{"document_type": "case"}},
		},
	}
	wf.filter(s)
	if len(s.FilteredResults) != 1 || s.FilteredResults[0].ID != "a" {
		t.Fatalf("expected only statute result to survive filter, got %v", s.FilteredResults)
	}
}
