package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the MySQL data source name for cfg.
// Credentials are URL encoded and the timeout applies to dialing, reads and writes.
func DSN(cfg Config) string {
	timeout := cfg.timeoutSeconds()
	params := url.Values{}
	params.Set("charset", "utf8mb4")
	params.Set("parseTime", "True")
	params.Set("loc", "Local")
	params.Set("timeout", fmt.Sprintf("%ds", timeout))
	params.Set("readTimeout", fmt.Sprintf("%ds", timeout))
	params.Set("writeTimeout", fmt.Sprintf("%ds", timeout))

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s",
		url.UserPassword(cfg.User, cfg.Password).String(), cfg.Host, cfg.Port, cfg.Name, params.Encode())
}

// Connect opens the journal database and pings it within the configured timeout.
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               DSN(cfg),
		DefaultStringSize: 255,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// The journal writes one short row per upload.
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.timeoutSeconds())*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}
