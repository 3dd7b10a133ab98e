package ratelimit

import "testing"

func TestLimitForPathExactMatch(t *testing.T) {
	l := New(10, map[string]int{"/api/v1/ask": 2})
	if got := l.limitForPath("/api/v1/ask"); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestLimitForPathPrefixMatch(t *testing.T) {
	l := New(10, map[string]int{"/api/v1/admin": 5})
	if got := l.limitForPath("/api/v1/admin/reindex"); got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

func TestLimitForPathDefault(t *testing.T) {
	l := New(10, map[string]int{"/api/v1/ask": 2})
	if got := l.limitForPath("/api/v1/unknown"); got != 10 {
		t.Fatalf("got %d, want default 10", got)
	}
}

func TestAllowEnforcesLimitThenRecoversHeaders(t *testing.T) {
	l := New(10, map[string]int{"/api/v1/ask": 2})

	ok1, limit1, rem1, _ := l.Allow("1.2.3.4", "/api/v1/ask")
	if !ok1 || limit1 != 2 || rem1 != 1 {
		t.Fatalf("1st call: ok=%v limit=%d remaining=%d", ok1, limit1, rem1)
	}

	ok2, _, rem2, _ := l.Allow("1.2.3.4", "/api/v1/ask")
	if !ok2 || rem2 != 0 {
		t.Fatalf("2nd call: ok=%v remaining=%d", ok2, rem2)
	}

	ok3, _, rem3, _ := l.Allow("1.2.3.4", "/api/v1/ask")
	if ok3 || rem3 != 0 {
		t.Fatalf("3rd call should be rejected: ok=%v remaining=%d", ok3, rem3)
	}
}

func TestAllowIsolatesByIPAndPath(t *testing.T) {
	l := New(10, map[string]int{"/api/v1/ask": 1})
	ok1, _, _, _ := l.Allow("1.1.1.1", "/api/v1/ask")
	ok2, _, _, _ := l.Allow("2.2.2.2", "/api/v1/ask")
	ok3, _, _, _ := l.Allow("1.1.1.1", "/api/v1/search")
	if !ok1 || !ok2 || !ok3 {
		t.Fatal("expected distinct (ip, path) buckets to be independent")
	}
}
