package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is the row persisted by the sqlite driver.
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:128"`
	Value     string `gorm:"column:entry_value;type:text"`
	UpdatedAt time.Time
}

// TableName implements gorm's tabler.
func (Entry) TableName() string {
	return "session_entries"
}

type sqliteStore struct {
	db    *gorm.DB
	owned bool
}

// OpenSQLite opens dsn and builds an owned store on it.
func OpenSQLite(dsn string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewSQLite(db, true)
}

// NewSQLite builds a store on db, migrating the entries table.
func NewSQLite(db *gorm.DB, owned bool) (Store, error) {
	if db == nil {
		return nil, errors.New("sqlite driver requires database handle")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate session entries: %w", err)
	}
	return &sqliteStore{db: db, owned: owned}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read session entry: %w", err)
	}
	return e.Value, nil
}

func (s *sqliteStore) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("write session entry: %w", err)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("delete session entries: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	if !s.owned {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
