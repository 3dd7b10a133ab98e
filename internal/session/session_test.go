package session

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testManager(t *testing.T, maxSessions int, timeout time.Duration) *Manager {
	t.Helper()
	return New(context.Background(), "", maxSessions, timeout, zap.NewNop())
}

func TestCreateGeneratesID(t *testing.T) {
	m := testManager(t, 100, time.Hour)
	s, err := m.Create(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if s.ID == "" {
		t.Fatal("expected generated session id")
	}
}

func TestGetReturnsNilForUnknownSession(t *testing.T) {
	m := testManager(t, 100, time.Hour)
	s, err := m.Get(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Fatal("expected nil for unknown session")
	}
}

func TestGetExpiresIdleSession(t *testing.T) {
	m := testManager(t, 100, 10*time.Millisecond)
	ctx := context.Background()
	s, _ := m.Create(ctx, "s1")
	s.AddMessage("user", "질문")
	time.Sleep(20 * time.Millisecond)
	got, err := m.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected session to expire after timeout")
	}
}

func TestContextStringFormatsRecentTurns(t *testing.T) {
	s := &Session{}
	s.AddMessage("user", "질문1")
	s.AddMessage("assistant", "답변1")
	s.AddMessage("user", "질문2")
	got := s.ContextString(2)
	want := "assistant: 답변1\nuser: 질문2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCleanupEvictsOldestHalf(t *testing.T) {
	ctx := context.Background()
	m := testManager(t, 2, time.Hour)
	s1, _ := m.Create(ctx, "old")
	s1.UpdatedAt = time.Now().Add(-time.Hour)
	m.mu.Lock()
	m.sessions[s1.ID] = s1
	m.mu.Unlock()

	_, _ = m.Create(ctx, "mid")
	_, _ = m.Create(ctx, "new") // triggers cleanup since count now exceeds maxSessions=2

	ids, _ := m.AllSessionIDs(ctx)
	for _, id := range ids {
		if id == "old" {
			t.Fatal("expected oldest session to be evicted by cleanup")
		}
	}
}
