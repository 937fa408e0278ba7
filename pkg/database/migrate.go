package database

import (
	"database/sql"
	"fmt"
	"os"
)

// Migrate applies the schema in docs/schema.sql. All statements use
// CREATE TABLE IF NOT EXISTS, so running it on every start is safe.
func Migrate(db *sql.DB) error {
	b, err := os.ReadFile("docs/schema.sql")
	if err != nil {
		return fmt.Errorf("read docs/schema.sql: %w", err)
	}

	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// MigrateSQL applies an explicit schema string. Used by tests and by
// callers that embed the schema rather than read it from disk.
func MigrateSQL(db *sql.DB, schema string) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
