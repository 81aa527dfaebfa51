package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the showgate schema. Idempotent; safe to run on every
// application startup. The Execer is typically *sql.DB but can be *sql.Tx
// for testing.
func Migrate(ctx context.Context, db Execer) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema.sql: %w", err)
	}
	return nil
}

// SchemaStatus reports which showgate tables are present. Used by the doctor
// command to diagnose a partially migrated database.
func SchemaStatus(ctx context.Context, q Querier) (present, missing []string, err error) {
	tables := []string{
		"profiles",
		"shows",
		"show_series",
		"show_participation",
		"planned_attendance",
		"want_lists",
		"shared_want_lists",
		"conversations",
		"conversation_participants",
		"messages",
		"favorites",
		"reviews",
	}
	for _, table := range tables {
		var exists bool
		err := q.QueryRowContext(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM information_schema.tables
			    WHERE table_schema = current_schema() AND table_name = $1
			 )`, table,
		).Scan(&exists)
		if err != nil {
			return nil, nil, fmt.Errorf("checking table %s: %w", table, err)
		}
		if exists {
			present = append(present, table)
		} else {
			missing = append(missing, table)
		}
	}
	return present, missing, nil
}
