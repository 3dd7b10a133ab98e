// JSONL query/error logs (spec §6 "Persisted state"), grounded on
// original_source/src/rag/query_logger.py's QueryLogger: one append-only
// file per stream, one JSON object per line, opened once and reused.
package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// QueryLogEntry is one line of the query log.
type QueryLogEntry struct {
	Timestamp    time.Time              `json:"timestamp"`
	Query        string                 `json:"query"`
	ResultsCount int                    `json:"results_count"`
	ResponseTime float64                `json:"response_time"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ErrorLogEntry is one line of the error log.
type ErrorLogEntry struct {
	Timestamp    time.Time              `json:"timestamp"`
	Severity     string                 `json:"severity"`
	ErrorType    string                 `json:"error_type"`
	ErrorMessage string                 `json:"error_message"`
	Context      map[string]interface{} `json:"context,omitempty"`
}

// JSONLAppender writes one JSON object per line to a file, serializing
// concurrent writers with a mutex (the only writer contention point in
// this package; every other monitor guards its own state independently).
type JSONLAppender struct {
	mu   sync.Mutex
	file *os.File
}

func NewJSONLAppender(path string) (*JSONLAppender, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLAppender{file: f}, nil
}

func (a *JSONLAppender) appendLine(v interface{}) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = a.file.Write(append(line, '\n'))
	return err
}

func (a *JSONLAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// QueryLogger appends one QueryLogEntry per search/ask request.
type QueryLogger struct{ appender *JSONLAppender }

func NewQueryLogger(path string) (*QueryLogger, error) {
	a, err := NewJSONLAppender(path)
	if err != nil {
		return nil, err
	}
	return &QueryLogger{appender: a}, nil
}

func (l *QueryLogger) Log(query string, resultsCount int, responseTime time.Duration, metadata map[string]interface{}) {
	_ = l.appender.appendLine(QueryLogEntry{
		Timestamp: time.Now(), Query: query, ResultsCount: resultsCount,
		ResponseTime: responseTime.Seconds(), Metadata: metadata,
	})
}

func (l *QueryLogger) Close() error { return l.appender.Close() }

// ErrorLogger appends one ErrorLogEntry per uncaught/typed failure.
type ErrorLogger struct{ appender *JSONLAppender }

func NewErrorLogger(path string) (*ErrorLogger, error) {
	a, err := NewJSONLAppender(path)
	if err != nil {
		return nil, err
	}
	return &ErrorLogger{appender: a}, nil
}

func (l *ErrorLogger) Log(severity, errorType, errorMessage string, context map[string]interface{}) {
	_ = l.appender.appendLine(ErrorLogEntry{
		Timestamp: time.Now(), Severity: severity, ErrorType: errorType,
		ErrorMessage: errorMessage, Context: context,
	})
}

func (l *ErrorLogger) Close() error { return l.appender.Close() }
