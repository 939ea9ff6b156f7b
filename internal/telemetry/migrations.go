package telemetry

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the telemetry log.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS telemetry (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session     TEXT NOT NULL,
		key         TEXT NOT NULL,
		value       TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_telemetry_key ON telemetry(key, id)`,
	`CREATE INDEX IF NOT EXISTS idx_telemetry_session ON telemetry(session)`,
}

// migrate executes all schema statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
