package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound is returned by Get when a key holds no value.
var ErrNotFound = errors.New("session key not found")

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("session store closed")

// Driver identifiers supported by [New].
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Store is synchronous durable key/value storage.
//
// Writes across keys are independent; there is no transactional guarantee.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes every listed key. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver string
	// Path is the file path for the file driver and the DSN for the sqlite driver.
	Path  string
	Redis RedisConfig
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Dependencies carries externally owned handles. Stores built on a supplied handle do not
// close it.
type Dependencies struct {
	Redis  redis.UniversalClient
	SQLite *gorm.DB
}

// New creates a store based on cfg.
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file driver requires a path")
		}
		return NewFile(cfg.Path)
	case DriverRedis:
		if deps.Redis != nil {
			return NewRedis(deps.Redis, cfg.Redis.Prefix, false), nil
		}
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis driver requires an address")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedis(client, cfg.Redis.Prefix, true), nil
	case DriverSQLite:
		if deps.SQLite != nil {
			return NewSQLite(deps.SQLite, false)
		}
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite driver requires a dsn")
		}
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported session store driver: %s", driver)
	}
}
