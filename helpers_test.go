package goSession

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// Advance moves time forward and runs due callbacks on the calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

type fakeBackend struct {
	mu sync.Mutex

	issuer *jwt.Manager
	clock  *fakeClock

	ttl        time.Duration
	role       string
	rawToken   string
	loginErr   error
	refreshErr error
	checkErr   error
	checkResp  *transport.CheckResponse
	checkGate  chan struct{}
	checkEntry chan struct{}

	loginCalls   int
	refreshCalls int
	checkCalls   int
}

func newFakeBackend(t *testing.T, clock *fakeClock) *fakeBackend {
	t.Helper()
	issuer, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "test-backend",
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return &fakeBackend{issuer: issuer, clock: clock, ttl: 30 * time.Minute, role: "ROLE_CUSTOMER"}
}

func (b *fakeBackend) token(email string) (string, error) {
	if b.rawToken != "" {
		return b.rawToken, nil
	}
	return b.issuer.Issue(jwt.IssueInput{
		Subject: email,
		Email:   email,
		Role:    b.role,
		TTL:     b.ttl,
		Now:     b.clock.Now(),
	})
}

func (b *fakeBackend) Login(_ context.Context, email, _ string) (*transport.AuthResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginCalls++
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	tok, err := b.token(email)
	if err != nil {
		return nil, err
	}
	return &transport.AuthResponse{Token: tok, UserName: "alice", Email: email, Role: transport.Roles{b.role}}, nil
}

func (b *fakeBackend) Refresh(context.Context) (*transport.AuthResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++
	if b.refreshErr != nil {
		return nil, b.refreshErr
	}
	tok, err := b.token("alice@x.com")
	if err != nil {
		return nil, err
	}
	return &transport.AuthResponse{Token: tok}, nil
}

func (b *fakeBackend) Check(ctx context.Context) (*transport.CheckResponse, error) {
	b.mu.Lock()
	b.checkCalls++
	gate, entry := b.checkGate, b.checkEntry
	b.mu.Unlock()

	if entry != nil {
		entry <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.checkErr != nil {
		return nil, b.checkErr
	}
	if b.checkResp != nil {
		return b.checkResp, nil
	}
	return &transport.CheckResponse{Email: "alice@x.com", Roles: transport.Roles{b.role}}, nil
}

func (b *fakeBackend) set(fn func(*fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) calls() (login, refresh, check int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls, b.refreshCalls, b.checkCalls
}

var errUnauthorized = &transport.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}

type recordingNavigator struct {
	mu      sync.Mutex
	targets []string
	current string
}

func (n *recordingNavigator) Navigate(_ context.Context, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if target == n.current {
		return ErrNavigationDuplicated
	}
	n.current = target
	n.targets = append(n.targets, target)
	return nil
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

type harness struct {
	m       *Manager
	clock   *fakeClock
	backend *fakeBackend
	store   session.Store
	queue   *notify.Queue
	nav     *recordingNavigator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := newFakeClock()
	return newHarnessWith(t, clock, newFakeBackend(t, clock), session.NewMemory())
}

func newHarnessWith(t *testing.T, clock *fakeClock, backend *fakeBackend, store session.Store) *harness {
	t.Helper()
	queue := notify.NewQueue(notify.QueueConfig{MessageBuffer: 32})
	nav := &recordingNavigator{}

	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	m, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithAuthAPI(backend).
		WithNotifier(queue).
		WithNavigator(nav).
		WithClock(clock).
		WithLogger(logging.Discard()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return &harness{m: m, clock: clock, backend: backend, store: store, queue: queue, nav: nav}
}

func (h *harness) login(t *testing.T) LoginResult {
	t.Helper()
	res := h.m.Login(context.Background(), "alice@x.com", "secret")
	if !res.Success {
		t.Fatalf("login failed: %+v", res)
	}
	return res
}

func (h *harness) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, err := h.store.Get(context.Background(), key)
	if err != nil {
		return "", false
	}
	return v, true
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func nextPrompt(t *testing.T, q *notify.Queue) *notify.Prompt {
	t.Helper()
	select {
	case p := <-q.Prompts():
		return p
	case <-time.After(2 * time.Second):
		t.Fatalf("expected an expiry prompt")
		return nil
	}
}

func drainMessages(q *notify.Queue) []notify.Message {
	var out []notify.Message
	for {
		select {
		case msg := <-q.Messages():
			out = append(out, msg)
		default:
			return out
		}
	}
}
