package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/clinic-console/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS appointments (
	id           INTEGER PRIMARY KEY,
	patient_id   INTEGER NOT NULL,
	doctor_id    INTEGER NOT NULL,
	scheduled_at TIMESTAMP NOT NULL,
	completed    BOOLEAN NOT NULL DEFAULT FALSE,
	complaint    TEXT NOT NULL DEFAULT '',
	diagnosis    TEXT NOT NULL DEFAULT '',
	medication   TEXT NOT NULL DEFAULT '',
	position     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS appointment_history (
	id           INTEGER PRIMARY KEY,
	patient_id   INTEGER NOT NULL,
	doctor_id    INTEGER NOT NULL,
	scheduled_at TIMESTAMP NOT NULL,
	completed    BOOLEAN NOT NULL DEFAULT TRUE,
	complaint    TEXT NOT NULL DEFAULT '',
	diagnosis    TEXT NOT NULL DEFAULT '',
	medication   TEXT NOT NULL DEFAULT '',
	processed_seq BIGSERIAL
);

CREATE TABLE IF NOT EXISTS patients (
	id       INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	age      INTEGER NOT NULL,
	address  TEXT NOT NULL,
	phone    TEXT NOT NULL,
	username TEXT NOT NULL,
	password TEXT NOT NULL,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS diagnoses (
	id             INTEGER PRIMARY KEY,
	appointment_id INTEGER NOT NULL,
	patient_id     INTEGER NOT NULL,
	doctor_id      INTEGER NOT NULL,
	recorded_at    TIMESTAMP NOT NULL,
	complaint      TEXT NOT NULL DEFAULT '',
	diagnosis      TEXT NOT NULL DEFAULT '',
	medication     TEXT NOT NULL DEFAULT ''
);
`

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
