package goSession

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Expiry.WarningBuffer != 2*time.Minute {
		t.Fatalf("expected 2m warning buffer, got %v", cfg.Expiry.WarningBuffer)
	}
	if got := cfg.Storage.Keys(); len(got) != 3 {
		t.Fatalf("expected three storage keys, got %v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "blank base url",
			mutate: func(c *Config) {
				c.Transport.BaseURL = "  "
			},
		},
		{
			name: "relative check path",
			mutate: func(c *Config) {
				c.Transport.CheckPath = "auth/check"
			},
		},
		{
			name: "file driver without path",
			mutate: func(c *Config) {
				c.Storage.Driver = "file"
			},
		},
		{
			name: "file driver with path",
			mutate: func(c *Config) {
				c.Storage.Driver = "file"
				c.Storage.Path = "/tmp/session.json"
			},
			wantValid: true,
		},
		{
			name: "unknown driver",
			mutate: func(c *Config) {
				c.Storage.Driver = "etcd"
			},
		},
		{
			name: "colliding keys",
			mutate: func(c *Config) {
				c.Storage.UserKey = c.Storage.TokenKey
			},
		},
		{
			name: "empty preference key allowed",
			mutate: func(c *Config) {
				c.Storage.PreferenceKey = ""
			},
			wantValid: true,
		},
		{
			name: "zero warning buffer",
			mutate: func(c *Config) {
				c.Expiry.WarningBuffer = 0
			},
		},
		{
			name: "blank marker",
			mutate: func(c *Config) {
				c.Roles.PrivilegedMarker = " "
			},
		},
		{
			name: "relative login route",
			mutate: func(c *Config) {
				c.Routes.Login = "login"
			},
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid {
				if err == nil {
					t.Fatalf("expected validation error")
				}
				if !errors.Is(err, ErrConfigInvalid) {
					t.Fatalf("expected ErrConfigInvalid, got %v", err)
				}
			}
		})
	}
}

func TestConfigValidateReportsFirstInvalidPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transport.LoginPath = "login"
	cfg.Transport.CheckPath = "check"
	cfg.Routes.Root = "root"
	cfg.Routes.DefaultHome = "home"

	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "Transport LoginPath") {
			t.Fatalf("expected LoginPath reported first, got %v", err)
		}
	}

	cfg.Transport = DefaultConfig().Transport
	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "Routes Root") {
			t.Fatalf("expected Root reported first, got %v", err)
		}
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Expiry.WarningBuffer = -time.Second
	if _, err := New().WithConfig(cfg).Build(); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New()
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer m.Close()
	if _, err := b.Build(); err == nil {
		t.Fatalf("expected second Build to fail")
	}
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	data := []byte(`
transport:
  base_url: https://auth.example.com
  header_prefix: "Bearer "
expiry:
  warning_buffer: 5m
roles:
  privileged_marker: staff
routes:
  privileged_home: /console
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.BaseURL != "https://auth.example.com" || cfg.Transport.HeaderPrefix != "Bearer " {
		t.Fatalf("unexpected transport %+v", cfg.Transport)
	}
	if cfg.Expiry.WarningBuffer != 5*time.Minute {
		t.Fatalf("expected 5m, got %v", cfg.Expiry.WarningBuffer)
	}
	if cfg.Roles.PrivilegedMarker != "staff" || cfg.Routes.PrivilegedHome != "/console" {
		t.Fatalf("unexpected overrides %+v %+v", cfg.Roles, cfg.Routes)
	}
	if cfg.Transport.HeaderName != "user-payload" || cfg.Routes.Login != "/login" {
		t.Fatalf("defaults lost for unspecified fields")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("transport: [\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path, LoadOptions{}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"BASE_URL", "http://backend:9000")
	t.Setenv(EnvPrefix+"WARNING_BUFFER", "90s")
	t.Setenv(EnvPrefix+"REDIS_DB", "3")
	t.Setenv(EnvPrefix+"METRICS_ENABLED", "true")

	cfg, err := LoadConfig("", LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.BaseURL != "http://backend:9000" {
		t.Fatalf("unexpected base url %q", cfg.Transport.BaseURL)
	}
	if cfg.Expiry.WarningBuffer != 90*time.Second || cfg.Storage.RedisDB != 3 || !cfg.Metrics.Enabled {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigEnvOverrideInvalid(t *testing.T) {
	t.Setenv(EnvPrefix+"TIMEOUT", "soon")
	if _, err := LoadConfig("", LoadOptions{}); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	const key = EnvPrefix + "PRIVILEGED_MARKER"
	if _, ok := os.LookupEnv(key); ok {
		t.Skipf("%s already set", key)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(key+"=SUPERVISOR\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig("", LoadOptions{EnvFiles: []string{filepath.Join(dir, "missing.env"), envFile}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Roles.PrivilegedMarker != "SUPERVISOR" {
		t.Fatalf("expected marker from env file, got %q", cfg.Roles.PrivilegedMarker)
	}
}
