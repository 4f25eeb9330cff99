// Package database manages the GORM connection and schema migration.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"basecamp/internal/config"
	"basecamp/internal/middleware"
	"basecamp/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CustomGormLogger bridges GORM's logger interface to slog so query logs
// carry the same request and trace attributes as application logs.
type CustomGormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
}

func NewGormLogger() *CustomGormLogger {
	level := gormlogger.Warn
	if os.Getenv("APP_ENV") == "development" {
		level = gormlogger.Info
	}
	return &CustomGormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *CustomGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *CustomGormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Info {
		middleware.Logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Warn {
		middleware.Logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Error {
		middleware.Logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	switch {
	case err != nil && err != gorm.ErrRecordNotFound && l.LogLevel >= gormlogger.Error:
		middleware.Logger.ErrorContext(ctx, "query failed", append(fields, slog.String("error", err.Error()))...)
	case elapsed > l.SlowThreshold && l.SlowThreshold > 0 && l.LogLevel >= gormlogger.Warn:
		middleware.Logger.WarnContext(ctx, "slow query", fields...)
	case l.LogLevel >= gormlogger.Info:
		middleware.Logger.InfoContext(ctx, "query", fields...)
	}
}

// Connect opens the PostgreSQL connection, configures the pool and runs
// migrations outside production (production schemas are managed explicitly).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if os.Getenv("APP_ENV") != "production" {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	middleware.Logger.Info("connected to database", "host", cfg.DBHost, "db", cfg.DBName)
	return db, nil
}

// Migrate runs GORM auto-migration for the full model set.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Theme{},
		&models.Post{},
		&models.Like{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
