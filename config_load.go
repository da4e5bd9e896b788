package goSession

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override read by [LoadConfig].
const EnvPrefix = "GOSESSION_"

// LoadOptions tune [LoadConfig].
type LoadOptions struct {
	// EnvFiles are loaded into the process environment before overrides are applied.
	// Missing files are ignored. Variables already set are not replaced.
	EnvFiles []string
}

// LoadConfig builds a Config from defaults, the YAML file at path (skipped when empty),
// .env files and GOSESSION_* environment overrides, then validates it.
func LoadConfig(path string, opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	for _, file := range opts.EnvFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Config{}, fmt.Errorf("loading env file %s: %w", file, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"BASE_URL":          &cfg.Transport.BaseURL,
		"HEADER_NAME":       &cfg.Transport.HeaderName,
		"HEADER_PREFIX":     &cfg.Transport.HeaderPrefix,
		"STORAGE_DRIVER":    &cfg.Storage.Driver,
		"STORAGE_PATH":      &cfg.Storage.Path,
		"REDIS_ADDR":        &cfg.Storage.RedisAddr,
		"REDIS_PASSWORD":    &cfg.Storage.RedisPassword,
		"REDIS_PREFIX":      &cfg.Storage.RedisPrefix,
		"PRIVILEGED_MARKER": &cfg.Roles.PrivilegedMarker,
		"ROUTES_FILE":       &cfg.Routes.RoutesFile,
		"LOG_LEVEL":         &cfg.Logging.Level,
		"LOG_FORMAT":        &cfg.Logging.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"TIMEOUT":        &cfg.Transport.Timeout,
		"WARNING_BUFFER": &cfg.Expiry.WarningBuffer,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		cfg.Storage.RedisDB = n
	}

	bools := map[string]*bool{
		"AUDIT_ENABLED":   &cfg.Audit.Enabled,
		"METRICS_ENABLED": &cfg.Metrics.Enabled,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}
