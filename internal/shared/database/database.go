package database

import (
	"fmt"

	"github.com/mockmate/server/internal/model"
	"github.com/mockmate/server/internal/shared/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New creates a new database connection.
func New(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Get underlying SQL DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// Migrate applies the schema for all tables the server owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Plan{},
		&model.Subscription{},
		&model.UsagePeriodCounter{},
		&model.UsageEvent{},
		&model.InterviewSession{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// One entitling subscription per user at a time. Partial unique indexes
	// are outside gorm's tag vocabulary, so raw SQL here.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_entitling_per_user
		 ON subscriptions (user_id) WHERE status IN ('active', 'trial')`,
	).Error
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
