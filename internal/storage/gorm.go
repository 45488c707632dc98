package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ClientState is the single-table key-value model backing the DB store.
// The table is created by the goose migrations under db/migrations.
type ClientState struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ClientState) TableName() string {
	return "client_state"
}

// DB implements Store on top of a GORM connection.
type DB struct {
	db *gorm.DB
}

// Open connects to the configured local state database. Driver "sqlite" is
// the default single-user mode; "postgres" supports shared deployments.
func Open(driver, dsn string) (*DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	return &DB{db: db}, nil
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

func (s *DB) Get(key string) (string, bool, error) {
	var record ClientState
	err := s.db.Where("key = ?", key).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return record.Value, true, nil
}

func (s *DB) Set(key, value string) error {
	record := ClientState{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Save(&record).Error
}

func (s *DB) Delete(key string) error {
	return s.db.Where("key = ?", key).Delete(&ClientState{}).Error
}

func (s *DB) DeleteAll(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Where("key IN ?", keys).Delete(&ClientState{}).Error
}
