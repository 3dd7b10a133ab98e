// Package ratelimit implements the per-(client-ip, path) sliding
// 60-second window limiter from spec §4.11, grounded on
// original_source/src/api/middleware.py's PathBasedRateLimitMiddleware,
// adapted from a Starlette BaseHTTPMiddleware into a gin.HandlerFunc per
// the teacher's routing idiom (legal-gateway and unified-rag-service
// both wire gin middleware this way).
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const window = 60 * time.Second

// Limiter enforces a sliding 60s window per (client-ip, path), with
// per-path limits and a default for unlisted paths (spec §4.11).
type Limiter struct {
	mu          sync.Mutex
	pathLimits  map[string]int
	defaultLim  int
	requests    map[string]map[string][]time.Time
}

func New(defaultLimit int, pathLimits map[string]int) *Limiter {
	return &Limiter{
		pathLimits: pathLimits,
		defaultLim: defaultLimit,
		requests:   make(map[string]map[string][]time.Time),
	}
}

// limitForPath returns the exact-match limit if configured, else the
// limit for the longest configured prefix, else the default (spec
// §4.11, ported from _get_limit_for_path).
func (l *Limiter) limitForPath(path string) int {
	if n, ok := l.pathLimits[path]; ok {
		return n
	}
	bestLen := -1
	best := l.defaultLim
	for prefix, n := range l.pathLimits {
		if strings.HasPrefix(path, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			best = n
		}
	}
	return best
}

// Allow records one attempt for (ip, path) and reports whether it is
// within the window's limit, along with the limit and remaining count
// after this attempt is counted.
func (l *Limiter) Allow(ip, path string) (allowed bool, limit, remaining int, resetAt time.Time) {
	limit = l.limitForPath(path)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	byPath, ok := l.requests[ip]
	if !ok {
		byPath = make(map[string][]time.Time)
		l.requests[ip] = byPath
	}
	timestamps := byPath[path]

	cutoff := now.Add(-window)
	kept := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		byPath[path] = kept
		return false, limit, 0, now.Add(window)
	}

	kept = append(kept, now)
	byPath[path] = kept
	return true, limit, limit - len(kept), now.Add(window)
}

// Middleware is the gin handler enforcing the limiter. On rejection it
// responds 429 with X-RateLimit-Limit and X-RateLimit-Remaining=0; on
// success it adds all three X-RateLimit-* headers (spec §4.11/§6).
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		allowed, limit, remaining, resetAt := l.Allow(ip, path)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(429, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": fmt.Sprintf("요청 한도를 초과했습니다. (%d회/분) 잠시 후 다시 시도해주세요.", limit),
				},
			})
			return
		}

		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		c.Next()
	}
}
