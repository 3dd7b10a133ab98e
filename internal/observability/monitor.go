package observability

import (
	"sync"
	"time"
)

const healthHistorySize = 100

// VectorDBMonitor tracks vector-store health-check outcomes over a
// bounded rolling window (spec SPEC_FULL.md §4, ported from
// original_source/src/utils/monitoring.py's VectorDBMonitor).
type VectorDBMonitor struct {
	mu      sync.Mutex
	history []bool
	lastErr string
	checked time.Time
}

func NewVectorDBMonitor() *VectorDBMonitor {
	return &VectorDBMonitor{}
}

// RecordCheck appends one health-check outcome to the rolling window.
func (v *VectorDBMonitor) RecordCheck(healthy bool, errMsg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = append(v.history, healthy)
	if len(v.history) > healthHistorySize {
		v.history = v.history[len(v.history)-healthHistorySize:]
	}
	v.lastErr = errMsg
	v.checked = time.Now()
}

// VectorDBStats mirrors VectorDBMonitor.get_stats's response shape.
type VectorDBStats struct {
	Healthy        bool      `json:"healthy"`
	HealthRate     float64   `json:"health_rate"`
	ChecksRecorded int       `json:"checks_recorded"`
	LastError      string    `json:"last_error,omitempty"`
	LastCheckedAt  time.Time `json:"last_checked_at"`
}

func (v *VectorDBMonitor) Stats() VectorDBStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.history) == 0 {
		return VectorDBStats{Healthy: true, HealthRate: 1.0}
	}
	var healthyCount int
	for _, h := range v.history {
		if h {
			healthyCount++
		}
	}
	return VectorDBStats{
		Healthy:        v.history[len(v.history)-1],
		HealthRate:     float64(healthyCount) / float64(len(v.history)),
		ChecksRecorded: len(v.history),
		LastError:      v.lastErr,
		LastCheckedAt:  v.checked,
	}
}
