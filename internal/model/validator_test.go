package model

import "testing"

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	issues := Validate(Document{})
	fields := map[string]bool{}
	for _, i := range issues {
		fields[i.Field] = true
	}
	for _, want := range []string{"id", "title", "type", "content"} {
		if !fields[want] {
			t.Errorf("expected a validation issue on field %q, got %+v", want, issues)
		}
	}
}

func TestValidateRejectsUnrecognizedKind(t *testing.T) {
	doc := Document{ID: "x", Title: "t", Kind: "not_a_kind", Content: TextContent("body")}
	issues := Validate(doc)
	found := false
	for _, i := range issues {
		if i.Field == "type" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unrecognized-kind issue, got %+v", issues)
	}
}

func TestValidateRequiresKindSpecificMetadata(t *testing.T) {
	doc := Document{ID: "s1", Title: "민법", Kind: KindStatute, Content: TextContent("제1조...")}
	issues := Validate(doc)
	got := map[string]bool{}
	for _, i := range issues {
		got[i.Field] = true
	}
	if !got["metadata.law_name"] || !got["metadata.article_number"] {
		t.Errorf("expected missing statute metadata issues, got %+v", issues)
	}
}

func TestValidateAcceptsCompleteDocument(t *testing.T) {
	doc := Document{
		ID: "s1", Title: "민법", Kind: KindStatute, Content: TextContent("제1조..."),
		Metadata: map[string]interface{}{"law_name": "민법", "article_number": "제1조"},
	}
	if issues := Validate(doc); len(issues) != 0 {
		t.Errorf("expected no issues for a complete statute, got %+v", issues)
	}
	if !IsValid(doc) {
		t.Errorf("IsValid returned false for a complete document")
	}
}

func TestValidateRejectsWhitespaceOnlyContent(t *testing.T) {
	doc := Document{ID: "x", Title: "t", Kind: KindManual, Content: TextContent("   \n\t  ")}
	issues := Validate(doc)
	found := false
	for _, i := range issues {
		if i.Field == "content" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected content issue for whitespace-only body, got %+v", issues)
	}
}

func TestContentEmptyForListOfBlanks(t *testing.T) {
	c := ListContent([]string{"  ", "\n", ""})
	if !c.Empty() {
		t.Error("expected list of all-blank strings to be Empty")
	}
	c2 := ListContent([]string{"  ", "real content"})
	if c2.Empty() {
		t.Error("expected list with at least one non-blank item to be non-Empty")
	}
}

func TestContentUnmarshalJSONAcceptsStringOrList(t *testing.T) {
	var c Content
	if err := c.UnmarshalJSON([]byte(`"hello"`)); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if c.IsList || c.Text != "hello" {
		t.Errorf("expected scalar text content, got %+v", c)
	}

	var c2 Content
	if err := c2.UnmarshalJSON([]byte(`["a","b"]`)); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if !c2.IsList || len(c2.List) != 2 {
		t.Errorf("expected list content of length 2, got %+v", c2)
	}
}
