package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewledger/internal/config"
	"reviewledger/internal/logger"
	"reviewledger/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialect returns the GORM dialector for the configured driver.
func Dialect(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewConnection opens the database and migrates the schema.
func NewConnection(cfg config.DBConfig) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}
	return Open(dialector)
}

// Open connects through dialector with zap-backed query logging and runs AutoMigrate.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(gormlogger.Warn, 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		zap.L().Warn("failed to auto-migrate models", zap.Error(err))
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Payer{},
		&model.ReviewJob{},
		&model.Income{},
		&model.Document{},
		&model.AuditLog{},
	)
}

// Ping checks connectivity within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsDuplicateKeyErr reports unique constraint violations across drivers.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
