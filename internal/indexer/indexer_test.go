package indexer

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"legal-rag-service/internal/model"
)

func TestParseJSONScalarContent(t *testing.T) {
	doc, err := ParseJSON([]byte(`{
		"id": "doc1",
		"type": "statute",
		"title": "형법 제1조",
		"content": "법률 본문",
		"metadata": {"law_name": "형법", "article_number": "제1조"}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != "doc1" || doc.Kind != model.KindStatute {
		t.Fatalf("unexpected parse: %+v", doc)
	}
	if doc.Content.IsList || doc.Content.Text != "법률 본문" {
		t.Fatalf("expected scalar content, got %+v", doc.Content)
	}
}

func TestParseJSONListContent(t *testing.T) {
	doc, err := ParseJSON([]byte(`{
		"id": "doc2",
		"type": "template",
		"title": "계약서 양식",
		"content": ["항목1", "항목2"]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Content.IsList || len(doc.Content.List) != 2 {
		t.Fatalf("expected list content, got %+v", doc.Content)
	}
}

func TestDocumentIDOrStemFallsBackToFilename(t *testing.T) {
	doc := model.Document{}
	got := DocumentIDOrStem(doc, "/data/statutes/형법_1조.json")
	if got != "형법_1조" {
		t.Fatalf("expected stem fallback, got %q", got)
	}
}

func TestDocumentIDOrStemPrefersDocumentID(t *testing.T) {
	doc := model.Document{ID: "explicit-id"}
	got := DocumentIDOrStem(doc, "/data/whatever.json")
	if got != "explicit-id" {
		t.Fatalf("expected explicit id, got %q", got)
	}
}

func TestIndexDocumentRejectsInvalidDocument(t *testing.T) {
	ix := New(nil, nil, nil, zap.NewNop())
	result := ix.IndexDocument(context.Background(), model.Document{}, true)
	if result.Success {
		t.Fatal("expected validation failure for empty document")
	}
	if result.Error == "" {
		t.Fatal("expected a validation error message")
	}
}
