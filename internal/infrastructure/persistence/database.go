package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anchala/pos/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the till's PostgreSQL handle. Gorm serves the repositories;
// SQL is the same pool, exposed for health checks.
type Database struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// Open connects to PostgreSQL and waits for it to answer, pinging up to
// cfg.ConnectRetries more times with doubling delays. A nil gormLog
// silences GORM.
func Open(ctx context.Context, cfg *config.DatabaseConfig, gormLog gormlogger.Interface, log *zap.Logger) (*Database, error) {
	if gormLog == nil {
		gormLog = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	if log == nil {
		log = zap.NewNop()
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}
	configurePool(sqlDB, cfg)

	if err := pingWithRetry(ctx, sqlDB, cfg.ConnectRetries, time.Second, log); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Database{Gorm: gdb, SQL: sqlDB}, nil
}

func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func pingWithRetry(ctx context.Context, db pinger, retries int, delay time.Duration, log *zap.Logger) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt >= retries {
			return fmt.Errorf("ping database after %d attempts: %w", attempt+1, err)
		}
		log.Warn("Database not ready, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping database: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Close closes the pool
func (d *Database) Close() error {
	return d.SQL.Close()
}
