package postgres

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"ocrdesk/internal/config"
)

// NewDB opens a PostgreSQL pool sized for the API plus the extraction
// worker, which holds connections across slow model calls.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	// Recycle connections so a failed-over database is picked up without
	// a process restart.
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}
