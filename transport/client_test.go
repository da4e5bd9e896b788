package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type recordingSink struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (s *recordingSink) Success(m string) {
	s.mu.Lock()
	s.successes = append(s.successes, m)
	s.mu.Unlock()
}

func (s *recordingSink) Error(m string) {
	s.mu.Lock()
	s.errors = append(s.errors, m)
	s.mu.Unlock()
}

func newTestServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestCredentialHeaderAttached(t *testing.T) {
	var got string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(DefaultHeaderName)
		_, _ = w.Write([]byte(`{"email":"a@x.com","roles":"ROLE_CUSTOMER"}`))
	})

	c := NewClient(Config{BaseURL: srv.URL}, CredentialFunc(func() string { return "tok-1" }))
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got != "tok-1" {
		t.Fatalf("expected credential header, got %q", got)
	}
}

func TestCredentialHeaderOmittedWhenEmpty(t *testing.T) {
	present := false
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header[http.CanonicalHeaderKey(DefaultHeaderName)]
		_, _ = w.Write([]byte(`{}`))
	})

	c := NewClient(Config{BaseURL: srv.URL}, CredentialFunc(func() string { return "" }))
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if present {
		t.Fatalf("expected no credential header for empty credential")
	}
}

func TestUnauthorizedSignal(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	})

	sink := &recordingSink{}
	c := NewClient(Config{BaseURL: srv.URL}, nil).WithMessages(sink)
	_, err := c.Login(context.Background(), "bad@x.com", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if Message(err) != "Invalid credentials" {
		t.Fatalf("expected server message, got %q", Message(err))
	}
	if len(sink.errors) != 1 || sink.errors[0] != "Invalid credentials" {
		t.Fatalf("expected error forwarded to sink, got %v", sink.errors)
	}
}

func TestServerErrorFallsBackToGenericMessage(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := c.Refresh(context.Background())
	if !errors.Is(err, ErrRequestFailed) || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrRequestFailed only, got %v", err)
	}
	if Message(err) != DefaultErrorMessage {
		t.Fatalf("expected generic message, got %q", Message(err))
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url}, nil)
	if _, err := c.Check(context.Background()); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestEnvelopeUnwrapped(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Welcome back","data":{"token":"t","userName":"alice","email":"a@x.com","role":"ROLE_ADMIN"}}`))
	})

	sink := &recordingSink{}
	c := NewClient(Config{BaseURL: srv.URL}, nil).WithMessages(sink)
	resp, err := c.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token != "t" || resp.UserName != "alice" || resp.Role.String() != "ROLE_ADMIN" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(sink.successes) != 1 || sink.successes[0] != "Welcome back" {
		t.Fatalf("expected success message forwarded, got %v", sink.successes)
	}
}

func TestLoginWithoutTokenIsDecodeError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"userName":"alice"}`))
	})
	c := NewClient(Config{BaseURL: srv.URL}, nil)
	if _, err := c.Login(context.Background(), "a", "b"); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestRolesShapes(t *testing.T) {
	cases := map[string]string{
		`{"roles":[{"authority":"ROLE_ADMIN"}]}`:                    "ROLE_ADMIN",
		`{"roles":"[ROLE_ADMIN]"}`:                                  "[ROLE_ADMIN]",
		`{"roles":["ROLE_CUSTOMER","ROLE_ADMIN"]}`:                  "ROLE_CUSTOMER,ROLE_ADMIN",
		`{"roles":null}`:                                            "",
		`{"roles":[{"authority":"A"},"B",{"name":"C"},{"x":"y"},7]}`: "A,B,C",
	}
	for body, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		c := NewClient(Config{BaseURL: srv.URL}, nil)
		resp, err := c.Check(context.Background())
		srv.Close()
		if err != nil {
			t.Fatalf("check %s: %v", body, err)
		}
		if got := resp.Roles.String(); got != want {
			t.Fatalf("roles for %s = %q, want %q", body, got, want)
		}
	}
}

func TestRolesPick(t *testing.T) {
	roles := Roles{"ROLE_CUSTOMER", "ROLE_ADMIN"}
	got := roles.Pick(func(r string) bool { return r == "ROLE_ADMIN" })
	if got != "ROLE_ADMIN" {
		t.Fatalf("expected preferred role, got %q", got)
	}
	if got := roles.Pick(nil); got != "ROLE_CUSTOMER" {
		t.Fatalf("expected first role, got %q", got)
	}
	if got := (Roles{}).Pick(nil); got != "" {
		t.Fatalf("expected empty role, got %q", got)
	}
}

func TestHeaderNameAndPrefixConfigurable(t *testing.T) {
	var got string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	})
	c := NewClient(Config{BaseURL: srv.URL + "/", HeaderName: "Authorization", HeaderPrefix: "Bearer "}, CredentialFunc(func() string { return "abc" }))
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got != "Bearer abc" {
		t.Fatalf("expected bearer header, got %q", got)
	}
}
