// Package session implements conversation session storage (spec §4.8),
// grounded on original_source/src/rag/session_manager.py's
// SessionManager/ConversationSession. Redis availability is decided once
// at construction time, matching the original's init-time
// try-connect-else-fall-back-to-memory semantics (spec §9: "backend
// choice is a one-time startup decision, not a per-call fallback").
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is one turn in a conversation (spec §3).
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a conversation session with timestamped history.
// mu serializes AddMessage across concurrent requests against the same
// session (spec §5: per-session mutex, no ordering guarantee across
// sessions); it is never marshaled.
type Session struct {
	ID        string                 `json:"session_id"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	History   []Message              `json:"history"`
	Metadata  map[string]interface{} `json:"metadata"`

	mu sync.Mutex
}

// AddMessage appends a turn and bumps UpdatedAt. Safe for concurrent
// callers on the same session: each call is atomic and one caller's
// calls keep their order, but calls from different callers may
// interleave (spec §5/§8).
func (s *Session) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, Message{Role: role, Content: content, Timestamp: time.Now()})
	s.UpdatedAt = time.Now()
}

// RecentHistory returns the last maxTurns messages, or all of them if
// maxTurns <= 0.
func (s *Session) RecentHistory(maxTurns int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxTurns <= 0 || maxTurns >= len(s.History) {
		out := make([]Message, len(s.History))
		copy(out, s.History)
		return out
	}
	return append([]Message(nil), s.History[len(s.History)-maxTurns:]...)
}

// ContextString renders the last maxTurns messages as "role: content"
// lines (spec §4.8, ported from get_context_string).
func (s *Session) ContextString(maxTurns int) string {
	recent := s.RecentHistory(maxTurns)
	lines := make([]string, len(recent))
	for i, m := range recent {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return strings.Join(lines, "\n")
}

// Manager stores sessions in-process or in Redis, chosen once at
// construction (spec §4.8).
type Manager struct {
	maxSessions int
	timeout     time.Duration
	logger      *zap.Logger

	useRedis bool
	redis    *redis.Client

	mu       sync.Mutex
	sessions map[string]*Session
}

// New decides the backend once: if redisURL is non-empty and a ping
// succeeds, Redis backs every session; otherwise the in-process map is
// used for the lifetime of the Manager (no later fallback attempts).
func New(ctx context.Context, redisURL string, maxSessions int, timeout time.Duration, logger *zap.Logger) *Manager {
	m := &Manager{
		maxSessions: maxSessions,
		timeout:     timeout,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
	if redisURL == "" {
		logger.Info("session manager using in-memory store")
		return m
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, falling back to in-memory session store", zap.Error(err))
		return m
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, falling back to in-memory session store", zap.Error(err))
		return m
	}
	m.useRedis = true
	m.redis = client
	logger.Info("session manager using redis store", zap.String("url", redisURL))
	return m
}

func redisKey(id string) string { return "session:" + id }

// Create starts a new session, generating an id if none is given.
func (m *Manager) Create(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{ID: id, CreatedAt: time.Now(), UpdatedAt: time.Now(), Metadata: map[string]interface{}{}}

	if m.useRedis {
		if err := m.saveToRedis(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	if len(m.sessions) > m.maxSessions {
		m.cleanupOldLocked()
	}
	return s, nil
}

// Get retrieves a session, deleting and returning nil if it has been
// idle longer than the configured timeout (spec §4.8).
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	var s *Session
	var err error
	if m.useRedis {
		s, err = m.loadFromRedis(ctx, id)
		if err != nil {
			return nil, err
		}
	} else {
		m.mu.Lock()
		s = m.sessions[id]
		m.mu.Unlock()
	}
	if s == nil {
		return nil, nil
	}
	if m.timeout > 0 && time.Since(s.UpdatedAt) > m.timeout {
		m.Delete(ctx, id)
		return nil, nil
	}
	return s, nil
}

// Update persists mutations made to a session fetched via Get. In-memory
// sessions are already live pointers into the map, so this is a no-op
// there; Redis sessions must be re-saved explicitly (spec §4.8).
func (m *Manager) Update(ctx context.Context, s *Session) error {
	if m.useRedis {
		return m.saveToRedis(ctx, s)
	}
	return nil
}

// Delete removes a session from whichever backend is active.
func (m *Manager) Delete(ctx context.Context, id string) {
	if m.useRedis {
		if err := m.redis.Del(ctx, redisKey(id)).Err(); err != nil {
			m.logger.Error("redis session delete failed", zap.Error(err))
		}
		return
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// AllSessionIDs lists every live session id.
func (m *Manager) AllSessionIDs(ctx context.Context) ([]string, error) {
	if m.useRedis {
		keys, err := m.redis.Keys(ctx, "session:*").Result()
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(keys))
		for i, k := range keys {
			ids[i] = strings.TrimPrefix(k, "session:")
		}
		return ids, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// cleanupOldLocked evicts the oldest (by UpdatedAt) half of in-memory
// sessions when the count exceeds maxSessions (spec §4.8, ported from
// _cleanup_old_sessions). Caller must hold m.mu.
func (m *Manager) cleanupOldLocked() {
	type entry struct {
		id      string
		updated time.Time
	}
	entries := make([]entry, 0, len(m.sessions))
	for id, s := range m.sessions {
		entries = append(entries, entry{id, s.UpdatedAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].updated.Before(entries[j].updated) })
	toRemove := len(entries) / 2
	for i := 0; i < toRemove; i++ {
		delete(m.sessions, entries[i].id)
	}
	m.logger.Info("cleaned up old sessions", zap.Int("removed", toRemove))
}

func (m *Manager) saveToRedis(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := m.timeout
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if err := m.redis.Set(ctx, redisKey(s.ID), data, ttl).Err(); err != nil {
		m.logger.Error("redis session save failed", zap.Error(err))
		return err
	}
	return nil
}

func (m *Manager) loadFromRedis(ctx context.Context, id string) (*Session, error) {
	data, err := m.redis.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
