package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by the login and refresh endpoints.
type AuthResponse struct {
	Token    string `json:"token"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Role     Roles  `json:"role"`
}

// CheckResponse is returned by the validation endpoint.
type CheckResponse struct {
	Email    string `json:"email"`
	UserName string `json:"userName,omitempty"`
	Roles    Roles  `json:"roles"`
}

// Roles accepts every shape the backend has used for role data: a flat string, an array of
// strings, or an array of {authority} records.
type Roles []string

// UnmarshalJSON implements json.Unmarshaler.
func (r *Roles) UnmarshalJSON(data []byte) error {
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = collectRoles(raw, nil)
	return nil
}

func collectRoles(v any, out Roles) Roles {
	switch t := v.(type) {
	case nil:
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

// String joins the roles with commas.
func (r Roles) String() string {
	return strings.Join(r, ",")
}

// Pick returns the first role for which prefer reports true, else the first role.
func (r Roles) Pick(prefer func(string) bool) string {
	if len(r) == 0 {
		return ""
	}
	if prefer != nil {
		for _, role := range r {
			if prefer(role) {
				return role
			}
		}
	}
	return r[0]
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Do(ctx, http.MethodPost, c.cfg.LoginPath, LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", ErrDecode)
	}
	return &out, nil
}

// Refresh exchanges the current credential for a new one.
func (c *Client) Refresh(ctx context.Context) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Do(ctx, http.MethodPost, c.cfg.RefreshPath, nil, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: refresh response has no token", ErrDecode)
	}
	return &out, nil
}

// Check validates the current credential server-side.
func (c *Client) Check(ctx context.Context) (*CheckResponse, error) {
	var out CheckResponse
	if err := c.Do(ctx, http.MethodGet, c.cfg.CheckPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
