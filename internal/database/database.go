package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"roomify/server/config"
	"roomify/server/internal/errs"
	"roomify/server/internal/models"
)

// ErrStaleVersion is returned by guarded writes when the row changed since
// it was read. Transaction retries the whole unit of work on it.
var ErrStaleVersion = errors.New("stale version")

type Database struct {
	db         *gorm.DB
	logger     *logrus.Logger
	maxRetries int
}

// NewDatabase opens the configured driver and returns a handle ready for
// use. The schema is not migrated, call MigrateSchema for that.
func NewDatabase(cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	retries := cfg.Database.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &Database{db: db, logger: logger, maxRetries: retries}, nil
}

// Open connects with gorm. SQLite is limited to a single connection so
// writers serialize instead of failing with SQLITE_BUSY.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver != "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewTestDB creates a migrated SQLite database inside dir.
func NewTestDB(dir string) (*Database, error) {
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(dir, "roomify_test.db")

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	d, err := NewDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := MigrateSchema(d.db); err != nil {
		return nil, err
	}
	return d, nil
}

func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Preferences{},
		&models.Match{},
		&models.LeaseAgreement{},
		&models.ChatMessage{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (d *Database) DB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn in a database transaction. A lost version race or a
// duplicate key on lazy creation rolls back and reruns fn from scratch, up
// to the configured number of attempts.
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		if attempt > 1 {
			d.logger.WithFields(logrus.Fields{
				"attempt":     attempt,
				"max_retries": d.maxRetries,
			}).Debug("Retrying transaction after concurrent update")
		}

		err = d.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	d.logger.WithError(err).Warn("Transaction gave up after concurrent updates")
	return errs.Conflict("The record was modified concurrently, please retry", "")
}

// WithContext returns a handle for reads that need no transaction.
func (d *Database) WithContext(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

func retryable(err error) bool {
	return errors.Is(err, ErrStaleVersion) || errors.Is(err, gorm.ErrDuplicatedKey)
}
