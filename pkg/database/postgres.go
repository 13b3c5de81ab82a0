package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/youthmultiply/welcoming-college/pkg/config"
)

// NewPostgres opens the export job database and verifies connectivity.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const exportJobsSchema = `CREATE TABLE IF NOT EXISTS export_jobs (
	id TEXT PRIMARY KEY,
	format TEXT NOT NULL,
	filename TEXT NOT NULL,
	status TEXT NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	result_url TEXT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
)`

// Migrate creates the export job table when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, exportJobsSchema); err != nil {
		return fmt.Errorf("migrate export_jobs: %w", err)
	}
	return nil
}
