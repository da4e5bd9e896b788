package goSession

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/session"
)

// Config is the complete Manager configuration.
//
// Config values are copied by [Builder.WithConfig]; later changes to the caller's value
// have no effect on a built Manager.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Expiry    ExpiryConfig    `yaml:"expiry"`
	Roles     RolesConfig     `yaml:"roles"`
	Routes    RoutesConfig    `yaml:"routes"`
	Audit     AuditConfig     `yaml:"audit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig configures the auth backend client.
type TransportConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	HeaderName   string        `yaml:"header_name"`
	HeaderPrefix string        `yaml:"header_prefix"`
	LoginPath    string        `yaml:"login_path"`
	RefreshPath  string        `yaml:"refresh_path"`
	CheckPath    string        `yaml:"check_path"`
	// ForwardMessages sends backend envelope messages to the Notifier.
	ForwardMessages bool `yaml:"forward_messages"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig selects the durable store and the keys the session occupies in it.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // memory, file, redis, sqlite
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
	TokenKey      string `yaml:"token_key"`
	UserKey       string `yaml:"user_key"`
	PreferenceKey string `yaml:"preference_key"`
}

/*
====================================
EXPIRY CONFIG
====================================
*/

// ExpiryConfig controls the proactive expiry policy for privileged roles.
type ExpiryConfig struct {
	// WarningBuffer is how long before expiry a privileged user is asked to extend.
	WarningBuffer time.Duration `yaml:"warning_buffer"`
	PromptTitle   string        `yaml:"prompt_title"`
	PromptMessage string        `yaml:"prompt_message"`
	// ExtendedMessage is shown after a successful refresh.
	ExtendedMessage string `yaml:"extended_message"`
	// ExpiredMessage is shown when a refresh fails and the session ends.
	ExpiredMessage string `yaml:"expired_message"`
}

// RolesConfig controls role classification.
type RolesConfig struct {
	// PrivilegedMarker is matched case-insensitively as a substring of the role.
	PrivilegedMarker string `yaml:"privileged_marker"`
}

// RoutesConfig names the navigation targets used by the Manager and the route guard.
type RoutesConfig struct {
	Root           string `yaml:"root"`
	Login          string `yaml:"login"`
	Signup         string `yaml:"signup"`
	PrivilegedHome string `yaml:"privileged_home"`
	DefaultHome    string `yaml:"default_home"`
	// RoutesFile optionally points at a YAML route table.
	RoutesFile string `yaml:"routes_file"`
}

// AuditConfig controls lifecycle event dispatch.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// LoggingConfig controls the default logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			BaseURL:     "http://localhost:8080",
			Timeout:     10 * time.Second,
			HeaderName:  "user-payload",
			LoginPath:   "/auth/login",
			RefreshPath: "/auth/refresh",
			CheckPath:   "/auth/check",
		},
		Storage: StorageConfig{
			Driver:        session.DriverMemory,
			RedisPrefix:   "gs",
			TokenKey:      "token",
			UserKey:       "user",
			PreferenceKey: "preferences",
		},
		Expiry: ExpiryConfig{
			WarningBuffer:   2 * time.Minute,
			PromptTitle:     "Session expiring",
			PromptMessage:   "Your session is about to expire. Do you want to extend it?",
			ExtendedMessage: "Session extended",
			ExpiredMessage:  "Your session has expired. Please log in again.",
		},
		Roles: RolesConfig{
			PrivilegedMarker: "ADMIN",
		},
		Routes: RoutesConfig{
			Root:           "/",
			Login:          "/login",
			Signup:         "/signup",
			PrivilegedHome: "/admin",
			DefaultHome:    "/home",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

func (c LoggingConfig) internal() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format, Output: c.Output}
}

func (c StorageConfig) driverConfig() session.Config {
	return session.Config{
		Driver: c.Driver,
		Path:   c.Path,
		Redis: session.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
		},
	}
}

// Keys returns every storage key the session occupies.
func (c StorageConfig) Keys() []string {
	keys := make([]string, 0, 3)
	for _, k := range []string{c.TokenKey, c.UserKey, c.PreferenceKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return nil
}

// namedPath keeps validation order, and so the reported field, stable.
type namedPath struct {
	name string
	path string
}

func (c *Config) validate() error {
	// Transport
	if strings.TrimSpace(c.Transport.BaseURL) == "" {
		return errors.New("Transport BaseURL must be set")
	}
	if c.Transport.Timeout < 0 {
		return errors.New("Transport Timeout must be >= 0")
	}
	if strings.TrimSpace(c.Transport.HeaderName) == "" {
		return errors.New("Transport HeaderName must be set")
	}
	for _, f := range []namedPath{
		{"LoginPath", c.Transport.LoginPath},
		{"RefreshPath", c.Transport.RefreshPath},
		{"CheckPath", c.Transport.CheckPath},
	} {
		if !strings.HasPrefix(f.path, "/") {
			return fmt.Errorf("Transport %s must start with /", f.name)
		}
	}

	// Storage
	switch c.Storage.Driver {
	case session.DriverMemory:
	case session.DriverFile, session.DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("Storage Path required for %s driver", c.Storage.Driver)
		}
	case session.DriverRedis:
	default:
		return fmt.Errorf("unsupported Storage Driver %q", c.Storage.Driver)
	}
	if c.Storage.TokenKey == "" || c.Storage.UserKey == "" {
		return errors.New("Storage TokenKey and UserKey must be set")
	}
	if c.Storage.TokenKey == c.Storage.UserKey || c.Storage.TokenKey == c.Storage.PreferenceKey || c.Storage.UserKey == c.Storage.PreferenceKey {
		return errors.New("Storage keys must be distinct")
	}

	// Expiry
	if c.Expiry.WarningBuffer <= 0 {
		return errors.New("Expiry WarningBuffer must be > 0")
	}

	// Roles
	if strings.TrimSpace(c.Roles.PrivilegedMarker) == "" {
		return errors.New("Roles PrivilegedMarker must be set")
	}

	// Routes
	for _, f := range []namedPath{
		{"Root", c.Routes.Root},
		{"Login", c.Routes.Login},
		{"PrivilegedHome", c.Routes.PrivilegedHome},
		{"DefaultHome", c.Routes.DefaultHome},
	} {
		if !strings.HasPrefix(f.path, "/") {
			return fmt.Errorf("Routes %s must start with /", f.name)
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
