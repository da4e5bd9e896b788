package goSession

import (
	"context"
	"testing"
	"time"
)

func TestExpiryEmitsSessionExpiredEvent(t *testing.T) {
	clock := newFakeClock()
	backend := newFakeBackend(t, clock)
	sink := NewChannelSink(16)

	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	m, err := New().WithConfig(cfg).WithAuthAPI(backend).WithClock(clock).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	m.Login(context.Background(), "alice@x.com", "pw")
	clock.Advance(30 * time.Minute)
	_ = m.Close()

	var expired *AuditEvent
	for len(sink.Events()) > 0 {
		ev := <-sink.Events()
		if ev.EventType == EventSessionExpired {
			expired = &ev
		}
	}
	if expired == nil {
		t.Fatalf("expected session_expired event")
	}
	if expired.Username != "alice" || expired.ID == "" {
		t.Fatalf("unexpected event %+v", expired)
	}
	if expired.Metadata["expires_at"] != testEpoch.Add(30*time.Minute).Format(time.RFC3339) {
		t.Fatalf("unexpected metadata %v", expired.Metadata)
	}
}

func TestAuditDroppedWhenFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true

	block := make(chan struct{})
	sink := blockingSink{release: block}
	m, err := New().WithConfig(cfg).WithAuthAPI(newFakeBackend(t, newFakeClock())).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i < 8; i++ {
		m.emitAudit(context.Background(), EventLogout, true, Identity{}, nil, nil)
	}
	if m.AuditDropped() == 0 {
		t.Fatalf("expected drops under backpressure")
	}
	close(block)
	_ = m.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	if m.AuditDropped() != 0 {
		t.Fatalf("expected zero")
	}
	if err := m.Initialize(context.Background()); err != ErrManagerNotReady {
		t.Fatalf("expected ErrManagerNotReady, got %v", err)
	}
	if res := m.Login(context.Background(), "a", "b"); res.Success || res.Err != ErrManagerNotReady {
		t.Fatalf("unexpected result %+v", res)
	}
	m.Logout(context.Background())
}
