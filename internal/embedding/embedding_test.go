package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestEmbedAndEmbedBatchProduceIdenticalVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "text-embedding-3-small", 1536)
	single, err := c.Embed(context.Background(), "동일한 텍스트")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	c2 := New(srv.URL, "key", "text-embedding-3-small", 1536)
	batch, err := c2.EmbedBatch(context.Background(), []string{"동일한 텍스트"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if !reflect.DeepEqual(single, batch[0]) {
		t.Errorf("single=%v batch=%v, want identical vectors for identical input", single, batch[0])
	}
}

func TestEmbedFailsFastOnAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "bad", "text-embedding-3-small", 1536)
	if _, err := c.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected an error for 401 response")
	}
}

func TestEmbedRetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{1, 2}}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", "text-embedding-3-small", 1536)
	v, err := c.Embed(context.Background(), "retry me")
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if len(v) != 2 {
		t.Errorf("v = %v, want length 2", v)
	}
}

func TestEmbedUsesCacheOnSecondCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{0.5}}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", "text-embedding-3-small", 1536)
	if _, err := c.Embed(context.Background(), "same text"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(context.Background(), "same text"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call for a cached repeat, got %d", calls)
	}
}

func TestDimensionForModel(t *testing.T) {
	if got := DimensionForModel("text-embedding-3-large"); got != 3072 {
		t.Errorf("large model dimension = %d, want 3072", got)
	}
	if got := DimensionForModel("text-embedding-3-small"); got != 1536 {
		t.Errorf("small model dimension = %d, want 1536", got)
	}
	if got := DimensionForModel("unknown-model"); got != 1536 {
		t.Errorf("unknown model should fall back to 1536, got %d", got)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := normalize("  hello\n\tworld   foo  ")
	want := "hello world foo"
	if got != want {
		t.Errorf("normalize = %q, want %q", got, want)
	}
}
