// Package observability collects request/search/LLM metrics, vector-db
// health snapshots, and JSONL query logs, grounded on
// original_source/src/utils/monitoring.py's APIMonitor/PerformanceMetrics/
// VectorDBMonitor and src/rag/query_logger.py's QueryLogger. Prometheus
// counters (teacher dependency, previously unused by the legal-AI
// surface) sit alongside the in-process rolling statistics so both a
// scrape endpoint and the admin JSON summary stay populated.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMonitor tracks per-(method,endpoint) request counts, error counts,
// and response-time samples (spec §4.12, ported from APIMonitor).
type APIMonitor struct {
	mu            sync.Mutex
	requestCounts map[string]int
	errorCounts   map[string]int
	responseTimes map[string][]float64
	startedAt     time.Time

	promRequests *prometheus.CounterVec
	promErrors   *prometheus.CounterVec
	promLatency  *prometheus.HistogramVec
}

func NewAPIMonitor(reg prometheus.Registerer) *APIMonitor {
	m := &APIMonitor{
		requestCounts: make(map[string]int),
		errorCounts:   make(map[string]int),
		responseTimes: make(map[string][]float64),
		startedAt:     time.Now(),
		promRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "legal_rag_http_requests_total",
			Help: "Total HTTP requests by method and endpoint.",
		}, []string{"method", "endpoint"}),
		promErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "legal_rag_http_errors_total",
			Help: "Total HTTP requests resulting in a 4xx/5xx status.",
		}, []string{"method", "endpoint"}),
		promLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "legal_rag_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
	if reg != nil {
		reg.MustRegister(m.promRequests, m.promErrors, m.promLatency)
	}
	return m
}

func requestKey(method, endpoint string) string { return method + " " + endpoint }

// RecordRequest logs one completed HTTP request (spec §4.12).
func (m *APIMonitor) RecordRequest(method, endpoint string, responseTime time.Duration, statusCode int) {
	key := requestKey(method, endpoint)
	seconds := responseTime.Seconds()

	m.mu.Lock()
	m.requestCounts[key]++
	m.responseTimes[key] = append(m.responseTimes[key], seconds)
	if statusCode >= 400 {
		m.errorCounts[key]++
	}
	m.mu.Unlock()

	m.promRequests.WithLabelValues(method, endpoint).Inc()
	m.promLatency.WithLabelValues(method, endpoint).Observe(seconds)
	if statusCode >= 400 {
		m.promErrors.WithLabelValues(method, endpoint).Inc()
	}
}

// EndpointStats is the per-endpoint slice of get_statistics's "endpoints" map.
type EndpointStats struct {
	RequestCount     int     `json:"request_count"`
	ErrorCount       int     `json:"error_count"`
	AvgResponseTime  float64 `json:"avg_response_time"`
	MaxResponseTime  float64 `json:"max_response_time"`
	MinResponseTime  float64 `json:"min_response_time"`
}

// Statistics mirrors APIMonitor.get_statistics's response shape.
type Statistics struct {
	UptimeSeconds float64                  `json:"uptime_seconds"`
	TotalRequests int                      `json:"total_requests"`
	Endpoints     map[string]EndpointStats `json:"endpoints"`
}

func (m *APIMonitor) Statistics() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Statistics{
		UptimeSeconds: time.Since(m.startedAt).Seconds(),
		Endpoints:     make(map[string]EndpointStats, len(m.requestCounts)),
	}
	for key, count := range m.requestCounts {
		stats.TotalRequests += count
		times := m.responseTimes[key]
		var sum, max, min float64
		for i, t := range times {
			sum += t
			if i == 0 || t > max {
				max = t
			}
			if i == 0 || t < min {
				min = t
			}
		}
		var avg float64
		if len(times) > 0 {
			avg = sum / float64(len(times))
		}
		stats.Endpoints[key] = EndpointStats{
			RequestCount:    count,
			ErrorCount:      m.errorCounts[key],
			AvgResponseTime: avg,
			MaxResponseTime: max,
			MinResponseTime: min,
		}
	}
	return stats
}
