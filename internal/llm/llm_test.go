package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateReturnsMessageContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("missing bearer auth, got %q", auth)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "정답입니다"}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", "gpt-test")
	out, err := c.Generate(context.Background(), "system", "user query")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "정답입니다" {
		t.Errorf("Generate = %q, want 정답입니다", out)
	}
	if usage := c.TokenUsage(); usage.TotalTokens != 15 {
		t.Errorf("TokenUsage.TotalTokens = %d, want 15", usage.TotalTokens)
	}
}

func TestGenerateFailsFastOnAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "bad-key", "gpt-test")
	_, err := c.Generate(context.Background(), "system", "user query")
	if err == nil {
		t.Fatal("expected an error for 401 response")
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", "gpt-test")
	out, err := c.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("expected eventual success after retries, got error: %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q, want ok", out)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestGenerateStreamYieldsChunksThenDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"안\"}}]}\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"녕\"}}]}\n")
		flusher.Flush()
		fmt.Fprint(w, "data: [DONE]\n")
		flusher.Flush()
	}))
	defer srv.Close()

	c := New(srv.URL, "", "gpt-test")
	ch := c.GenerateStream(context.Background(), "s", "u")

	var text string
	sawDone := false
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		if chunk.Done {
			sawDone = true
			continue
		}
		text += chunk.Text
	}
	if text != "안녕" {
		t.Errorf("assembled text = %q, want 안녕", text)
	}
	if !sawDone {
		t.Error("expected a terminal Done chunk")
	}
}

func TestGenerateStreamCancellationStopsEarly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL, "", "gpt-test")
	ch := c.GenerateStream(ctx, "s", "u")

	first := <-ch
	if first.Err != nil || first.Text != "x" {
		t.Fatalf("expected first chunk 'x', got %+v", first)
	}
	cancel()
	for range ch {
		// drain until closed; the goroutine must observe ctx.Done and exit.
	}
}
