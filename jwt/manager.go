package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed is returned when a credential is not a decodable JWT.
	ErrTokenMalformed = errors.New("credential malformed")
	// ErrMissingExpiry is returned when a credential carries no exp claim.
	ErrMissingExpiry = errors.New("credential has no expiry")
	// ErrSignatureInvalid is returned when signature verification is configured and fails.
	ErrSignatureInvalid = errors.New("credential signature invalid")
	// ErrIssueUnsupported is returned by Issue on a decode-only Manager.
	ErrIssueUnsupported = errors.New("manager has no signing key")
)

// SigningMethod names a supported JWT algorithm.
type SigningMethod string

const (
	// MethodNone decodes without verification and cannot issue.
	MethodNone SigningMethod = ""
	// MethodEd25519 is EdDSA over Ed25519.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 is HMAC-SHA256.
	MethodHS256 SigningMethod = "hs256"
)

// Config configures a Manager.
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	KeyID         string
	VerifyKeys    map[string][]byte
	// AccessTTL is the lifetime Issue applies when IssueInput.TTL is zero.
	AccessTTL time.Duration
}

// Manager decodes and, when keyed, issues credentials.
type Manager struct {
	config Config
}

// CredentialClaims is the claim set carried by a session credential.
type CredentialClaims struct {
	UserName string           `json:"userName,omitempty"`
	Email    string           `json:"email,omitempty"`
	Role     RoleClaim        `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RoleClaim reads the role claim in any shape backends emit: a string, an array of
// strings, or {authority} records. Unreadable shapes decode as no role, so a credential's
// expiry stays readable whatever its role claim holds.
type RoleClaim []string

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (r *RoleClaim) UnmarshalJSON(data []byte) error {
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		*r = nil
		return nil
	}
	*r = collectRoles(raw, nil)
	return nil
}

func collectRoles(v any, out RoleClaim) RoleClaim {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			out = collectRoles(item, out)
		}
	case map[string]any:
		for _, key := range []string{"authority", "role", "name"} {
			if s, ok := t[key].(string); ok {
				return collectRoles(s, out)
			}
		}
	}
	return out
}

// Credential is the decoded view of a bearer token.
type Credential struct {
	Subject   string
	UserName  string
	Email     string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// TimeLeft returns the remaining lifetime relative to now; negative when expired.
func (c Credential) TimeLeft(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// IssueInput describes a credential to mint.
type IssueInput struct {
	Subject  string
	UserName string
	Email    string
	Role     string
	TTL      time.Duration
	Now      time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = time.Hour
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	switch cfg.SigningMethod {
	case MethodNone:
		return &Manager{config: cfg}, nil
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key or verify key set")
		}
		for kid, key := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}

	return &Manager{config: cfg}, nil
}

// Verifying reports whether Decode checks signatures.
func (j *Manager) Verifying() bool {
	return j != nil && j.config.SigningMethod != MethodNone
}

// Decode extracts the expiry and role claims from tokenStr.
//
// Expired tokens decode successfully.
func (j *Manager) Decode(tokenStr string) (*Credential, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrTokenMalformed
	}

	claims := &CredentialClaims{}
	if !j.Verifying() {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	} else {
		parser := jwt.NewParser(
			jwt.WithValidMethods([]string{j.getMethod().Alg()}),
			jwt.WithoutClaimsValidation(),
		)
		_, err := parser.ParseWithClaims(tokenStr, claims, j.keyFunc)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		if j.config.Issuer != "" && claims.Issuer != j.config.Issuer {
			return nil, fmt.Errorf("%w: unexpected issuer", ErrSignatureInvalid)
		}
	}

	if claims.ExpiresAt == nil {
		return nil, ErrMissingExpiry
	}

	cred := &Credential{
		Subject:   claims.Subject,
		UserName:  claims.UserName,
		Email:     claims.Email,
		Role:      strings.Join(claims.Role, ","),
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		cred.IssuedAt = claims.IssuedAt.Time
	}
	return cred, nil
}

// Issue signs a credential for in.
func (j *Manager) Issue(in IssueInput) (string, error) {
	if !j.Verifying() {
		return "", ErrIssueUnsupported
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	ttl := in.TTL
	if ttl == 0 {
		ttl = j.config.AccessTTL
	}

	claims := CredentialClaims{
		UserName: in.UserName,
		Email:    in.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   in.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}
	if in.Role != "" {
		claims.Role = RoleClaim{in.Role}
	}
	if j.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.config.Audience}
	}

	token := jwt.NewWithClaims(j.getMethod(), claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}

	signKey, err := j.getSignKey()
	if err != nil {
		return "", err
	}

	return token.SignedString(signKey)
}

func (j *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != j.getMethod().Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	if len(j.config.VerifyKeys) > 0 {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := j.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return j.keyBytesToVerifyKey(key)
	}

	if j.config.KeyID != "" {
		kid, _ := t.Header["kid"].(string)
		if kid != j.config.KeyID {
			return nil, errors.New("unknown kid")
		}
	}

	return j.getVerifyKey()
}

func (j *Manager) getMethod() jwt.SigningMethod {
	switch j.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (j *Manager) getSignKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		if len(j.config.PrivateKey) == 0 {
			return nil, ErrIssueUnsupported
		}
		return parseEdPrivateKey(j.config.PrivateKey)
	}
}

func (j *Manager) getVerifyKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		return parseEdPublicKey(j.config.PublicKey)
	}
}

func (j *Manager) keyBytesToVerifyKey(key []byte) (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		return parseEdPublicKey(key)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
