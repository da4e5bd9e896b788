package goSession

import (
	"context"
	"io"

	"github.com/MrEthical07/goSession/internal/audit"
)

// Lifecycle event names.
const (
	EventLoginSuccess         = "login_success"
	EventLoginFailure         = "login_failure"
	EventSessionRestored      = "session_restored"
	EventSessionRestoreFailed = "session_restore_failure"
	EventRefreshSuccess       = "refresh_success"
	EventRefreshFailure       = "refresh_failure"
	EventLogout               = "logout"
	EventSessionExpired       = "session_expired"
	EventExpiryPrompt         = "expiry_prompt"
)

// AuditEvent is a session lifecycle record.
type AuditEvent = audit.Event

// AuditSink receives lifecycle events.
type AuditSink = audit.Sink

// NoOpSink drops lifecycle events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers lifecycle events on a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes lifecycle events as JSON lines.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

func (m *Manager) emitAudit(ctx context.Context, eventType string, success bool, identity Identity, err error, metadata map[string]string) {
	if m.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp: m.clock.Now(),
		EventType: eventType,
		Username:  identity.Username,
		Role:      identity.Role,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	m.audit.Emit(ctx, ev)
}

// AuditDropped returns the number of lifecycle events dropped under backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}
