package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// SchemaOptions carries the static sets baked into CHECK constraints.
type SchemaOptions struct {
	Batches    []string
	Roles      []string
	DriverRole string
}

// Statements returns the idempotent DDL for the tracker schema.
func Statements(opts SchemaOptions) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			name          VARCHAR(100) NOT NULL,
			email         VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_sessions (
			id         UUID PRIMARY KEY,
			user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token_hash VARCHAR(64) NOT NULL UNIQUE,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_user ON user_sessions (user_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS operations_log (
			id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			operation_date       DATE NOT NULL,
			day_of_week          VARCHAR(10) NOT NULL,
			month                VARCHAR(10) NOT NULL,
			year                 INTEGER NOT NULL,
			batch                CHAR(1) NOT NULL,
			operation_role       VARCHAR(50) NOT NULL,
			start_time           TIMESTAMPTZ,
			end_time             TIMESTAMPTZ,
			total_orders         INTEGER,
			on_time_deliveries   INTEGER,
			started_by_user_id   UUID REFERENCES users(id),
			completed_by_user_id UUID REFERENCES users(id),
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT unique_operation UNIQUE (operation_date, batch, operation_role),
			CONSTRAINT valid_batch CHECK (batch IN (%s)),
			CONSTRAINT valid_role CHECK (operation_role IN (%s)),
			CONSTRAINT end_after_start CHECK (end_time IS NULL OR (start_time IS NOT NULL AND end_time >= start_time)),
			CONSTRAINT valid_year CHECK (year BETWEEN 2024 AND 2100),
			CONSTRAINT driver_orders_valid CHECK (
				(total_orders IS NULL AND on_time_deliveries IS NULL)
				OR (operation_role = %s AND total_orders >= 0 AND on_time_deliveries >= 0)
			),
			CONSTRAINT on_time_not_exceed_total CHECK (on_time_deliveries IS NULL OR on_time_deliveries <= total_orders)
		)`, quoteList(opts.Batches), quoteList(opts.Roles), pq.QuoteLiteral(opts.DriverRole)),
		`CREATE INDEX IF NOT EXISTS idx_operations_date_batch ON operations_log (operation_date, batch)`,
	}
}

// Migrate applies Statements inside one transaction.
func Migrate(ctx context.Context, db *sql.DB, opts SchemaOptions) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range Statements(opts) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = pq.QuoteLiteral(v)
	}
	return strings.Join(quoted, ", ")
}
