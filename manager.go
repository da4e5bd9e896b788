package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"golang.org/x/sync/singleflight"
)

const initializeKey = "initialize"

var errPromptExpired = errors.New("expiry prompt unanswered")

// Manager owns the session lifecycle: restoring a stored session, logging in, refreshing,
// logging out and enforcing the expiry policy.
//
// Manager methods are safe for concurrent use. Network calls never run under a lock, and
// every result is applied only if the session it was started for is still current.
type Manager struct {
	config     Config
	state      *State
	store      session.Store
	ownsStore  bool
	decoder    *jwt.Manager
	classifier permission.Classifier
	notifier   Notifier
	navigator  atomic.Pointer[navigatorHolder]
	logger     *slog.Logger
	clock      Clock
	audit      *audit.Dispatcher
	metrics    *Metrics
	flows      flows.Service
	scheduler  *expiryScheduler

	// mu serializes state transitions with expiry scheduling.
	mu sync.Mutex

	scopeMu     sync.Mutex
	scope       context.Context
	scopeCancel context.CancelFunc
	closed      bool

	initGroup singleflight.Group
	closeOnce sync.Once
}

type navigatorHolder struct {
	nav Navigator
}

type restoreOutcome struct {
	epoch    uint64
	rejected bool
	expired  bool
}

// State returns the shared session state.
func (m *Manager) State() *State {
	return m.state
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	return m.state.Snapshot()
}

// Classifier returns the role classifier used by the expiry policy.
func (m *Manager) Classifier() permission.Classifier {
	return m.classifier
}

// Config returns a copy of the configuration the Manager was built with.
func (m *Manager) Config() Config {
	return m.config
}

// SetNavigator replaces the navigator used after logout. It exists for navigators that
// need the Manager to be constructed first, such as a guarded router.
func (m *Manager) SetNavigator(nav Navigator) {
	if nav == nil {
		nav = nopNavigator{}
	}
	m.navigator.Store(&navigatorHolder{nav: nav})
}

func (m *Manager) navigate(ctx context.Context, target string) error {
	return m.navigator.Load().nav.Navigate(ctx, target)
}

// ExpiryPending reports whether an expiry action is armed.
func (m *Manager) ExpiryPending() bool {
	return m.scheduler.pending()
}

// MetricsSnapshot returns the current counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return m.metrics.Snapshot()
}

/*
====================================
INITIALIZE
====================================
*/

// Initialize reconciles memory, durable storage and the server.
//
// It returns immediately when a validated credential is already in memory. Otherwise a
// stored credential is installed optimistically and validated with the backend; on
// failure the session is fully logged out. Concurrent calls share one validation.
//
// The returned error is informational: when validation fails the session has already
// been logged out, and callers may proceed on the unauthenticated state.
func (m *Manager) Initialize(ctx context.Context) error {
	if m == nil || m.store == nil {
		return ErrManagerNotReady
	}
	if snap := m.state.Snapshot(); snap.Authenticated && snap.Credential != "" {
		return nil
	}

	v, err, _ := m.initGroup.Do(initializeKey, func() (any, error) {
		return m.restore(ctx)
	})
	// Logout navigates, and navigation may call Initialize, so it runs outside the flight.
	if outcome, ok := v.(restoreOutcome); ok {
		switch {
		case outcome.rejected:
			m.terminate(ctx, outcome.epoch, true)
		case outcome.expired:
			m.expire(ctx, outcome.epoch)
		}
	}
	return err
}

func (m *Manager) restore(ctx context.Context) (restoreOutcome, error) {
	if snap := m.state.Snapshot(); snap.Authenticated && snap.Credential != "" {
		return restoreOutcome{}, nil
	}

	token, identity, err := m.loadStored(ctx)
	if err != nil {
		m.logger.Warn("stored session unreadable", "error", err)
		return restoreOutcome{}, err
	}
	if token == "" {
		return restoreOutcome{}, nil
	}

	epoch := m.state.beginRestore(token, identity)
	m.state.publish()

	opCtx, done := m.bind(ctx)
	start := m.clock.Now()
	res := m.flows.Validate(opCtx, identity)
	done()
	m.metrics.Observe(MetricValidateLatency, m.clock.Now().Sub(start))

	if res.Err != nil {
		m.logger.Info("stored session rejected", "error", res.Err)
		return restoreOutcome{epoch: epoch, rejected: true}, res.Err
	}

	m.mu.Lock()
	if !m.state.commitRestore(epoch, res.Identity) {
		m.mu.Unlock()
		return restoreOutcome{epoch: epoch}, ErrStaleResult
	}
	expireNow := m.scheduleLocked(token, res.Identity, epoch)
	m.mu.Unlock()
	m.state.publish()

	if err := m.persistIdentity(context.WithoutCancel(ctx), res.Identity); err != nil {
		m.logger.Warn("persisting restored identity failed", "error", err)
	}
	m.logger.Info("session restored", "role", res.Identity.Role)
	return restoreOutcome{epoch: epoch, expired: expireNow}, nil
}

func (m *Manager) loadStored(ctx context.Context) (string, Identity, error) {
	token, err := m.store.Get(ctx, m.config.Storage.TokenKey)
	if errors.Is(err, session.ErrNotFound) || (err == nil && token == "") {
		return "", Identity{}, nil
	}
	if err != nil {
		return "", Identity{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	raw, err := m.store.Get(ctx, m.config.Storage.UserKey)
	if errors.Is(err, session.ErrNotFound) || (err == nil && raw == "") {
		// A write interrupted between the two keys leaves a token with no identity.
		m.logger.Warn("stored credential has no identity, clearing stored session")
		m.clearStored(ctx)
		return "", Identity{}, nil
	}
	if err != nil {
		return "", Identity{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	identity, err := session.DecodeIdentity(raw)
	if err != nil {
		m.logger.Warn("stored identity corrupt, clearing stored session", "error", err)
		m.clearStored(ctx)
		return "", Identity{}, nil
	}
	return token, identity, nil
}

func (m *Manager) clearStored(ctx context.Context) {
	if err := m.store.Delete(ctx, m.config.Storage.Keys()...); err != nil {
		m.logger.Error("clearing stored session failed", "error", err)
	}
}

/*
====================================
LOGIN
====================================
*/

// Login authenticates with the backend. On success the credential and identity are
// installed, persisted and the expiry policy is armed. On failure nothing changes and the
// result carries a displayable message.
func (m *Manager) Login(ctx context.Context, username, password string) LoginResult {
	if m == nil || !m.flows.Initialized() {
		return LoginResult{Error: "Login failed", Err: ErrManagerNotReady}
	}

	out := m.flows.Login(ctx, username, password)
	if out.Failure != flows.LoginFailureNone {
		m.logger.Info("login rejected", "error", out.Err)
		return LoginResult{Success: false, Error: out.Message, Err: out.Err}
	}

	if err := m.persist(ctx, out.Token, out.Identity); err != nil {
		m.logger.Error("persisting session failed", "error", err)
	}

	m.mu.Lock()
	epoch := m.state.establish(out.Token, out.Identity)
	expireNow := m.scheduleLocked(out.Token, out.Identity, epoch)
	m.mu.Unlock()
	m.state.publish()

	m.logger.Info("login succeeded", "role", out.Identity.Role)
	if expireNow {
		m.expire(ctx, epoch)
	}
	return LoginResult{Success: true, Role: out.Identity.Role}
}

/*
====================================
REFRESH
====================================
*/

// Refresh exchanges the current credential for a new one. Failure is terminal: the user
// is notified and logged out before the error is returned.
func (m *Manager) Refresh(ctx context.Context) error {
	if m == nil || !m.flows.Initialized() {
		return ErrManagerNotReady
	}
	snap, epoch := m.state.current()
	if snap.Credential == "" {
		return ErrNotAuthenticated
	}
	return m.refreshFrom(ctx, epoch, snap.Identity)
}

func (m *Manager) refreshFrom(ctx context.Context, epoch uint64, identity Identity) error {
	opCtx, done := m.bind(ctx)
	out := m.flows.Refresh(opCtx, identity)
	done()

	if out.Err != nil {
		if m.state.Epoch() != epoch {
			return fmt.Errorf("%w: %w", ErrStaleResult, out.Err)
		}
		m.logger.Warn("session refresh failed", "error", out.Err)
		m.notifier.Error(m.config.Expiry.ExpiredMessage)
		m.terminate(ctx, epoch, true)
		return out.Err
	}

	m.mu.Lock()
	newEpoch, ok := m.state.replace(epoch, out.Token, out.Identity)
	if !ok {
		m.mu.Unlock()
		return ErrStaleResult
	}
	expireNow := m.scheduleLocked(out.Token, out.Identity, newEpoch)
	m.mu.Unlock()
	m.state.publish()

	if err := m.persist(context.WithoutCancel(ctx), out.Token, out.Identity); err != nil {
		m.logger.Error("persisting refreshed session failed", "error", err)
	}
	m.notifier.Success(m.config.Expiry.ExtendedMessage)
	m.logger.Info("session refreshed", "role", out.Identity.Role)
	if expireNow {
		m.expire(ctx, newEpoch)
	}
	return nil
}

/*
====================================
LOGOUT
====================================
*/

// Logout ends the session: the expiry timer and in-flight requests are cancelled, storage
// and memory are cleared and the application navigates to the login entry. Logout is
// idempotent and never fails; side-effect errors are logged.
func (m *Manager) Logout(ctx context.Context) {
	if m == nil || m.state == nil {
		return
	}
	m.terminate(ctx, 0, false)
}

// terminate logs out and returns the state it cleared. When conditional is set it does
// nothing unless epoch is current.
func (m *Manager) terminate(ctx context.Context, epoch uint64, conditional bool) (Snapshot, bool) {
	m.mu.Lock()
	if conditional && m.state.Epoch() != epoch {
		m.mu.Unlock()
		return Snapshot{}, false
	}
	m.scheduler.stop()
	m.resetScope()
	prev := m.state.clear()
	m.mu.Unlock()
	m.state.publish()

	res := m.flows.Logout(context.WithoutCancel(ctx), prev.Identity)
	if res.StoreErr != nil {
		m.logger.Error("clearing stored session failed", "error", res.StoreErr)
	}
	if res.NavigateErr != nil {
		m.logger.Debug("navigation after logout failed", "error", res.NavigateErr)
	}
	if prev.Credential != "" {
		m.logger.Info("logged out", "role", prev.Identity.Role)
	}
	return prev, true
}

// expire is the expiry policy's logout.
func (m *Manager) expire(ctx context.Context, epoch uint64) {
	prev, ok := m.terminate(ctx, epoch, true)
	if !ok {
		return
	}
	m.metrics.Inc(MetricExpiryLogout)
	// terminate cancelled the expiry action's ctx.
	m.emitAudit(context.WithoutCancel(ctx), EventSessionExpired, true, prev.Identity, nil, map[string]string{
		"expires_at": prev.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

/*
====================================
EXPIRY POLICY
====================================
*/

// scheduleLocked arms the expiry policy for a newly acquired credential. It reports
// whether the credential must be logged out immediately. Callers hold m.mu.
func (m *Manager) scheduleLocked(token string, identity Identity, epoch uint64) bool {
	cred, err := m.decoder.Decode(token)
	if err != nil {
		m.scheduler.stop()
		m.metrics.Inc(MetricCredentialUndecodable)
		m.logger.Warn("credential expiry unreadable, no expiry timer armed", "error", err)
		return false
	}
	m.state.setExpiry(epoch, cred.ExpiresAt)

	role := cred.Role
	if role == "" {
		role = identity.Role
	}
	privileged := m.classifier.IsPrivileged(role)
	timeLeft := cred.TimeLeft(m.clock.Now())

	action, delay := expiryPlan(timeLeft, m.config.Expiry.WarningBuffer, privileged)
	switch action {
	case expiryNow:
		m.scheduler.stop()
		m.logger.Info("credential expired or inside warning buffer", "expires_at", cred.ExpiresAt, "privileged", privileged)
		return true
	case expiryLogout:
		m.scheduler.arm(delay, func(ctx context.Context) {
			m.expire(ctx, epoch)
		})
	case expiryPrompt:
		m.scheduler.arm(delay, func(ctx context.Context) {
			go m.confirmExtend(ctx, epoch)
		})
	}
	m.logger.Debug("expiry timer armed", "expires_at", cred.ExpiresAt, "privileged", privileged, "fires_in", delay)
	return false
}

// confirmExtend asks the user to extend a privileged session. No answer before the
// credential expires counts as "no". ctx ends when the credential is superseded.
func (m *Manager) confirmExtend(ctx context.Context, epoch uint64) {
	m.metrics.Inc(MetricExpiryPromptShown)

	promptCtx, cancel := context.WithCancelCause(ctx)
	deadline := m.clock.AfterFunc(m.config.Expiry.WarningBuffer, func() {
		cancel(errPromptExpired)
	})
	ok, err := m.notifier.Confirm(promptCtx, m.config.Expiry.PromptTitle, m.config.Expiry.PromptMessage)
	deadline.Stop()
	cancel(nil)

	if ctx.Err() != nil {
		return
	}

	snap := m.state.Snapshot()
	if err != nil || !ok {
		m.metrics.Inc(MetricExpiryPromptDeclined)
		m.emitAudit(ctx, EventExpiryPrompt, false, snap.Identity, err, map[string]string{"answer": "declined"})
		m.expire(ctx, epoch)
		return
	}

	m.metrics.Inc(MetricExpiryPromptAccepted)
	m.emitAudit(ctx, EventExpiryPrompt, true, snap.Identity, nil, map[string]string{"answer": "extend"})
	if m.state.Epoch() != epoch {
		return
	}
	_ = m.refreshFrom(ctx, epoch, snap.Identity)
}

/*
====================================
STORAGE & SCOPES
====================================
*/

func (m *Manager) persist(ctx context.Context, token string, identity Identity) error {
	if err := m.store.Set(ctx, m.config.Storage.TokenKey, token); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return m.persistIdentity(ctx, identity)
}

func (m *Manager) persistIdentity(ctx context.Context, identity Identity) error {
	raw, err := session.EncodeIdentity(identity)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := m.store.Set(ctx, m.config.Storage.UserKey, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// bind derives a request context that is also cancelled by the next logout.
func (m *Manager) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	m.scopeMu.Lock()
	scope := m.scope
	m.scopeMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(scope, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (m *Manager) resetScope() {
	m.scopeMu.Lock()
	defer m.scopeMu.Unlock()
	m.scopeCancel()
	if m.closed {
		return
	}
	m.scope, m.scopeCancel = context.WithCancel(context.Background())
}

// Close cancels the expiry timer and in-flight requests, flushes lifecycle events and
// closes a store the Manager opened itself. The session itself is left intact.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	var err error
	m.closeOnce.Do(func() {
		m.scheduler.stop()

		m.scopeMu.Lock()
		m.closed = true
		m.scopeCancel()
		m.scopeMu.Unlock()

		m.audit.Close()
		if m.ownsStore && m.store != nil {
			err = m.store.Close()
		}
	})
	return err
}
