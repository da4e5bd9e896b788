package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const maxBodyBytes = 1 << 20

// DefaultHeaderName is the request header carrying the credential.
const DefaultHeaderName = "user-payload"

// CredentialProvider supplies the credential to attach to outgoing requests.
type CredentialProvider interface {
	Credential() string
}

// CredentialFunc adapts a function to CredentialProvider.
type CredentialFunc func() string

// Credential implements CredentialProvider.
func (f CredentialFunc) Credential() string { return f() }

// MessageSink receives envelope messages. It is optional.
type MessageSink interface {
	Success(message string)
	Error(message string)
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	HeaderName   string
	HeaderPrefix string
	LoginPath    string
	RefreshPath  string
	CheckPath    string
	HTTPClient   *http.Client
}

// Client performs credentialed calls against the auth backend.
type Client struct {
	cfg         Config
	http        *http.Client
	credentials CredentialProvider
	messages    MessageSink
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient builds a Client. credentials may be nil, in which case every request is sent
// unauthenticated.
func NewClient(cfg Config, credentials CredentialProvider) *Client {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/auth/login"
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/auth/refresh"
	}
	if cfg.CheckPath == "" {
		cfg.CheckPath = "/auth/check"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, http: hc, credentials: credentials}
}

// WithMessages forwards envelope success messages and error messages to sink.
func (c *Client) WithMessages(sink MessageSink) *Client {
	c.messages = sink
	return c
}

// Do sends a request and decodes the payload into out (which may be nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachCredential(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
		if c.messages != nil {
			c.messages.Error(apiErr.Message)
		}
		return apiErr
	}

	payload := raw
	var env envelope
	if len(raw) > 0 && sonic.Unmarshal(raw, &env) == nil && env.Success != nil {
		if *env.Success && env.Message != "" && c.messages != nil {
			c.messages.Success(env.Message)
		}
		if len(env.Data) > 0 {
			payload = env.Data
		}
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func (c *Client) attachCredential(req *http.Request) {
	if c.credentials == nil {
		return
	}
	cred := c.credentials.Credential()
	if cred == "" {
		return
	}
	req.Header.Set(c.cfg.HeaderName, c.cfg.HeaderPrefix+cred)
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(raw) > 0 && sonic.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return DefaultErrorMessage
}
