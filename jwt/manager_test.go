package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newHSManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("secret-secret-secret-secret"), Issuer: "goSession"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndDecodeRoundTrip(t *testing.T) {
	m := newHSManager(t)
	now := time.Now().Truncate(time.Second)

	token, err := m.Issue(IssueInput{Subject: "u1", UserName: "alice", Email: "alice@x.com", Role: "[ROLE_ADMIN]", TTL: 10 * time.Minute, Now: now})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cred, err := m.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cred.Role != "[ROLE_ADMIN]" || cred.Email != "alice@x.com" || cred.UserName != "alice" {
		t.Fatalf("unexpected claims: %+v", cred)
	}
	if !cred.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("expected expiry %v, got %v", now.Add(10*time.Minute), cred.ExpiresAt)
	}
	if left := cred.TimeLeft(now); left != 10*time.Minute {
		t.Fatalf("expected 10m left, got %v", left)
	}
}

func TestDecodeExpiredTokenStillDecodes(t *testing.T) {
	m := newHSManager(t)
	token, err := m.Issue(IssueInput{Subject: "u1", Role: "ROLE_CUSTOMER", TTL: time.Minute, Now: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	cred, err := m.Decode(token)
	if err != nil {
		t.Fatalf("expired token must decode: %v", err)
	}
	if cred.TimeLeft(time.Now()) > 0 {
		t.Fatalf("expected negative time left")
	}
}

func TestDecodeUnverified(t *testing.T) {
	issuer := newHSManager(t)
	token, err := issuer.Issue(IssueInput{Subject: "u1", Role: "ROLE_CUSTOMER"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	decoder, err := NewManager(Config{})
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	if decoder.Verifying() {
		t.Fatalf("decode-only manager must not verify")
	}
	cred, err := decoder.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cred.Role != "ROLE_CUSTOMER" {
		t.Fatalf("unexpected role %q", cred.Role)
	}
	if _, err := decoder.Issue(IssueInput{Subject: "u1"}); !errors.Is(err, ErrIssueUnsupported) {
		t.Fatalf("expected ErrIssueUnsupported, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	decoder, _ := NewManager(Config{})
	for _, in := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := decoder.Decode(in); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Decode(%q): expected ErrTokenMalformed, got %v", in, err)
		}
	}
}

func TestDecodeMissingExpiry(t *testing.T) {
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, CredentialClaims{Email: "a@x.com"})
	token, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	decoder, _ := NewManager(Config{})
	if _, err := decoder.Decode(token); !errors.Is(err, ErrMissingExpiry) {
		t.Fatalf("expected ErrMissingExpiry, got %v", err)
	}
}

func TestDecodeRoleClaimShapes(t *testing.T) {
	decoder, _ := NewManager(Config{})
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name string
		role any
		want string
	}{
		{"string", "ROLE_ADMIN", "ROLE_ADMIN"},
		{"strings", []string{"ROLE_CUSTOMER", "ROLE_ADMIN"}, "ROLE_CUSTOMER,ROLE_ADMIN"},
		{"authority records", []map[string]string{{"authority": "ROLE_ADMIN"}}, "ROLE_ADMIN"},
		{"unreadable", 42, ""},
		{"object without role", map[string]int{"level": 3}, ""},
	}
	for _, tc := range cases {
		token, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, gjwt.MapClaims{"exp": exp, "role": tc.role}).
			SignedString(gjwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("%s: sign: %v", tc.name, err)
		}
		cred, err := decoder.Decode(token)
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if cred.Role != tc.want {
			t.Fatalf("%s: role %q, want %q", tc.name, cred.Role, tc.want)
		}
		if cred.ExpiresAt.Unix() != exp {
			t.Fatalf("%s: expiry %v, want %d", tc.name, cred.ExpiresAt, exp)
		}
	}
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	pub, _ := newEdKeys(t)
	_, otherPriv := newEdKeys(t)
	verifier, err := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	signer, err := NewManager(Config{SigningMethod: MethodEd25519, PrivateKey: otherPriv, PublicKey: otherPriv.Public().(ed25519.PublicKey)})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := signer.Issue(IssueInput{Subject: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Decode(token); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256}); err == nil {
		t.Fatalf("expected hs256 without key to fail")
	}
	if _, err := NewManager(Config{SigningMethod: "rs512"}); err == nil {
		t.Fatalf("expected unsupported method to fail")
	}
	if _, err := NewManager(Config{SigningMethod: MethodEd25519}); err == nil {
		t.Fatalf("expected ed25519 without keys to fail")
	}
}
