package guard

import (
	"context"
	"sync"
	"testing"

	goSession "github.com/MrEthical07/goSession"
)

type fakeSource struct {
	mu        sync.Mutex
	snap      goSession.Snapshot
	initErr   error
	initCalls int
}

func (s *fakeSource) Initialize(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initCalls++
	return s.initErr
}

func (s *fakeSource) Snapshot() goSession.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *fakeSource) as(role string) *fakeSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if role == "" {
		s.snap = goSession.Snapshot{}
		return s
	}
	s.snap = goSession.Snapshot{
		Authenticated: true,
		Credential:    "token",
		Identity:      goSession.Identity{Username: "alice", Role: role},
	}
	return s
}

func anonymous() *fakeSource { return (&fakeSource{}).as("") }

func signedIn(role string) *fakeSource { return (&fakeSource{}).as(role) }

func newTestGuard(t *testing.T, source SessionSource) *Guard {
	t.Helper()
	table, err := NewTable(DefaultRoutes())
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return New(source, table, Config{})
}
