package observability

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestQueryLoggerAppendsOneJSONObjectPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.jsonl")
	logger, err := NewQueryLogger(path)
	if err != nil {
		t.Fatalf("NewQueryLogger: %v", err)
	}
	logger.Log("사건 검색", 5, 120*time.Millisecond, map[string]interface{}{"client": "test"})
	logger.Log("판례 검색", 2, 80*time.Millisecond, nil)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	var entry QueryLogEntry
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal line 0: %v", err)
	}
	if entry.Query != "사건 검색" || entry.ResultsCount != 5 {
		t.Errorf("entry = %+v", entry)
	}
}

func TestErrorLoggerAppendsOneJSONObjectPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.jsonl")
	logger, err := NewErrorLogger(path)
	if err != nil {
		t.Fatalf("NewErrorLogger: %v", err)
	}
	logger.Log("error", "VECTOR_STORE_ERROR", "connection refused", map[string]interface{}{"retry": 1})
	_ = logger.Close()

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	var entry ErrorLogEntry
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.ErrorType != "VECTOR_STORE_ERROR" || entry.Severity != "error" {
		t.Errorf("entry = %+v", entry)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	return lines
}
